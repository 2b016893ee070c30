package datastore

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

var ErrDatasetNotFound = errors.New("dataset file not found")

const chemblHeaderID = "chembl_id"

// maxLineSize bounds a single corpus line; some InChI columns are long.
const maxLineSize = 1 << 20

// Locate finds the file backing ds anywhere under dataDir.
func Locate(dataDir string, ds kinds.Dataset) (string, error) {
	if !ds.HasSource() {
		return "", fmt.Errorf("%w: %s has no source file", ErrDatasetNotFound, ds)
	}
	pattern := filepath.Join(dataDir, "**", ds.Filename())
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", err
	}
	var files []string
	for _, name := range matches {
		info, err := os.Stat(name)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s under %s", ErrDatasetNotFound, ds.Filename(), dataDir)
	}
	sort.Strings(files)
	return files[0], nil
}

// Load builds the corpus of ds from the files under dataDir. limit caps
// the number of PubChem entries read; zero reads all.
func Load(dataDir string, ds kinds.Dataset, limit int) (*Doc, error) {
	switch ds {
	case kinds.DatasetEmpty:
		return NewDoc(nil, nil)
	case kinds.DatasetDummy:
		return Dummy(), nil
	}

	path, err := Locate(dataDir, ds)
	if err != nil {
		return nil, err
	}
	if ds == kinds.DatasetPubChem {
		return LoadPubChem(path, limit)
	}
	return LoadChembl(path)
}

// LoadChembl reads a ChEMBL chemreps file: tab separated chembl_id,
// canonical_smiles, standard_inchi, standard_inchi_key with a header row.
// Duplicate ids keep the last row.
func LoadChembl(path string) (*Doc, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected tab separated id and smiles", path, line)
		}
		if fields[0] == chemblHeaderID {
			continue
		}
		rows[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ids := make([]string, 0, len(rows))
	smiles := make([]string, 0, len(rows))
	for id, s := range rows {
		ids = append(ids, id)
		smiles = append(smiles, s)
	}
	return NewDoc(ids, smiles)
}

// LoadPubChem reads CID-SMILES: one "CID SMILES" pair per line.
func LoadPubChem(path string, limit int) (*Doc, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var ids, smiles []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		if limit > 0 && len(ids) >= limit {
			break
		}
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected cid and smiles", path, line)
		}
		ids = append(ids, fields[0])
		smiles = append(smiles, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewDoc(ids, smiles)
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// open transparently decompresses files ending in .gz.
func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}
