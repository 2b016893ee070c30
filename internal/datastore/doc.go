// Package datastore holds the structure corpora that dividends are cut
// from, keyed by dataset kind.
package datastore

import (
	"fmt"
	"sort"
	"strings"
)

// Doc is a corpus of (id, SMILES) entries sorted by id.
type Doc struct {
	ids    []string
	smiles []string
}

type entry struct {
	id     string
	smiles string
}

// NewDoc sorts the entries by id. ids and smiles must have equal length.
func NewDoc(ids, smiles []string) (*Doc, error) {
	if len(ids) != len(smiles) {
		return nil, fmt.Errorf("doc: %d ids but %d structures", len(ids), len(smiles))
	}
	entries := make([]entry, len(ids))
	for i := range ids {
		entries[i] = entry{id: ids[i], smiles: smiles[i]}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	doc := &Doc{ids: make([]string, len(entries)), smiles: make([]string, len(entries))}
	for i, e := range entries {
		doc.ids[i] = e.id
		doc.smiles[i] = e.smiles
	}
	return doc, nil
}

// Dummy is the four-entry corpus used for smoke tests.
func Dummy() *Doc {
	doc, _ := NewDoc(
		[]string{"label_1", "label_3", "label_2", "label_4"},
		[]string{
			"O=C(C)Oc1ccccc1C(=O)O",
			"N1=C(c3c(Sc2c1cccc2)cccc3)N4CCN(CCOCCO)CC4",
			"O=C(O)C[C@H](O)C[C@H](O)CCn2c(c(c(c2c1ccc(F)cc1)c3ccccc3)C(=O)Nc4ccccc4)C(C)C",
			"CC(=O)Nc1ccc(O)cc1",
		},
	)
	return doc
}

func (d *Doc) Len() int {
	return len(d.ids)
}

// Get looks up the SMILES of an entry by id.
func (d *Doc) Get(id string) (string, bool) {
	i := sort.SearchStrings(d.ids, id)
	if i < len(d.ids) && d.ids[i] == id {
		return d.smiles[i], true
	}
	return "", false
}

// Slice returns copies of the entries in [start, end).
func (d *Doc) Slice(start, end int) ([]string, []string) {
	start = max(0, min(start, len(d.ids)))
	end = max(start, min(end, len(d.ids)))
	ids := make([]string, end-start)
	smiles := make([]string, end-start)
	copy(ids, d.ids[start:end])
	copy(smiles, d.smiles[start:end])
	return ids, smiles
}

// Summary renders a name/entries table of the given docs.
func Summary(docs map[string]int) string {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-15s %15s\n", "name", "entries")
	b.WriteString(strings.Repeat("=", 31))
	for _, name := range names {
		fmt.Fprintf(&b, "\n%-15s %15d", name, docs[name])
	}
	return b.String()
}
