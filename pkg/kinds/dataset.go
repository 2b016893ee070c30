package kinds

import (
	"errors"
	"fmt"
)

// Dataset names a corpus of structures.
type Dataset string

const (
	DatasetEmpty      Dataset = "empty"
	DatasetDummy      Dataset = "dummy"
	DatasetTestChembl Dataset = "test_chembl"
	DatasetChembl30   Dataset = "chembl30"
	DatasetPubChem    Dataset = "pub_chem"
)

var ErrUnknownDataset = errors.New("unknown dataset kind")

func Datasets() []Dataset {
	return []Dataset{DatasetEmpty, DatasetDummy, DatasetTestChembl, DatasetChembl30, DatasetPubChem}
}

func ParseDataset(s string) (Dataset, error) {
	for _, d := range Datasets() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataset, s)
}

func (d Dataset) String() string {
	return string(d)
}

// Size is the nominal number of entries; PubChem is a rough figure since it
// is not versioned.
func (d Dataset) Size() int {
	switch d {
	case DatasetDummy:
		return 4
	case DatasetTestChembl:
		return 10000
	case DatasetChembl30:
		return 2136187
	case DatasetPubChem:
		return 160000000
	}
	return 0
}

// HasSource reports whether the dataset is backed by a downloadable file.
func (d Dataset) HasSource() bool {
	return d.Filename() != ""
}

func (d Dataset) SourceURL() string {
	switch d {
	case DatasetTestChembl:
		return "https://github.com/chiral-data/chiral-db-example-data/blob/main/ChEMBL/chembl_30_chemreps_10k.txt?raw=true"
	case DatasetChembl30:
		return "https://ftp.ebi.ac.uk/pub/databases/chembl/ChEMBLdb/releases/chembl_30/chembl_30_chemreps.txt.gz"
	case DatasetPubChem:
		return "https://ftp.ncbi.nlm.nih.gov/pubchem/Compound/Extras/CID-SMILES.gz"
	}
	return ""
}

func (d Dataset) Filename() string {
	switch d {
	case DatasetTestChembl:
		return "chembl_30_chemreps_10k.txt"
	case DatasetChembl30:
		return "chembl_30_chemreps.txt"
	case DatasetPubChem:
		return "CID-SMILES.gz"
	}
	return ""
}

func (d *Dataset) UnmarshalText(text []byte) error {
	parsed, err := ParseDataset(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
