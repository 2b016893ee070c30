package kinds

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Fingerprint
		wantErr error
	}{
		{name: "valid fp4", input: "ob_fp4_512", want: Fingerprint{Family: FP4, NBits: 512}},
		{name: "valid ecfp4", input: "ob_ecfp4_2048", want: Fingerprint{Family: ECFP4, NBits: 2048}},
		{name: "two parts", input: "ob_fp4", wantErr: ErrFingerprintFormat},
		{name: "non integer nbits", input: "ob_fp4_51k", wantErr: ErrFingerprintNBits},
		{name: "unknown package", input: "rdkit_fp4_512", wantErr: ErrFingerprintType},
		{name: "unknown family", input: "ob_fp5_512", wantErr: ErrFingerprintType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFingerprint(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.input, got.String())
		})
	}
}

func TestFingerprint_Words(t *testing.T) {
	require.Equal(t, 64, Fingerprint{Family: ECFP4, NBits: 2048}.Words())
	require.Equal(t, 1, Fingerprint{Family: FP2, NBits: 1}.Words())
	require.Equal(t, 2, Fingerprint{Family: FP2, NBits: 33}.Words())
}

func TestParseOperator_RoundTrip(t *testing.T) {
	for _, op := range Operators() {
		parsed, err := ParseOperator(op.String())
		require.NoError(t, err)
		require.Equal(t, op, parsed)
	}

	op, err := ParseOperator("ob_sim:ob_ecfp2_1024")
	require.NoError(t, err)
	require.Equal(t, Similarity{Fingerprint: Fingerprint{Family: ECFP2, NBits: 1024}}, op)

	op, err = ParseOperator("ob_sim")
	require.NoError(t, err)
	require.Equal(t, DefaultSimilarity(), op)
}

func TestParseOperator_Errors(t *testing.T) {
	_, err := ParseOperator("unknown")
	require.ErrorIs(t, err, ErrUnknownOperator)

	_, err = ParseOperator("ob_ss:extra")
	require.ErrorIs(t, err, ErrUnknownOperator)

	_, err = ParseOperator("ob_sim:ob_fp4")
	require.ErrorIs(t, err, ErrFingerprintFormat)
}

func TestOperator_Comparable(t *testing.T) {
	seen := map[Operator]int{}
	seen[Similarity{Fingerprint: Fingerprint{Family: ECFP4, NBits: 2048}}]++
	seen[DefaultSimilarity()]++
	seen[Similarity{Fingerprint: Fingerprint{Family: ECFP4, NBits: 1024}}]++
	seen[Substructure{}]++

	require.Len(t, seen, 3)
	require.Equal(t, 2, seen[DefaultSimilarity()])
}

func TestOperator_Classification(t *testing.T) {
	require.Equal(t, MultiMachine, DefaultSimilarity().Computation())
	require.Equal(t, MultiMachine, Substructure{}.Computation())
	require.Equal(t, SingleMachine, GmxCommand{}.Computation())
	require.Equal(t, SingleMachine, ReCGenBuild{}.Computation())
	require.Equal(t, "openbabel", Substructure{}.App())
	require.Equal(t, "gromacs", GmxCommand{}.App())
	require.Equal(t, "ob_sim", OperatorName(DefaultSimilarity()))
}

func TestDataset(t *testing.T) {
	require.Equal(t, 10000, DatasetTestChembl.Size())
	require.Equal(t, 4, DatasetDummy.Size())
	require.Equal(t, 0, DatasetEmpty.Size())
	require.Equal(t, "chembl_30_chemreps_10k.txt", DatasetTestChembl.Filename())
	require.False(t, DatasetDummy.HasSource())
	require.True(t, DatasetPubChem.HasSource())

	for _, ds := range Datasets() {
		parsed, err := ParseDataset(ds.String())
		require.NoError(t, err)
		require.Equal(t, ds, parsed)
	}

	_, err := ParseDataset("chembl31")
	require.True(t, errors.Is(err, ErrUnknownDataset))
}

func TestComputingUnit_JSONRoundTrip(t *testing.T) {
	for _, op := range Operators() {
		cu := NewComputingUnit(op, DatasetTestChembl)
		data, err := json.Marshal(cu)
		require.NoError(t, err)

		var decoded ComputingUnit
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, cu, decoded)
	}
}

func TestComputingUnit_UnmarshalRejectsUnknownDataset(t *testing.T) {
	var cu ComputingUnit
	err := json.Unmarshal([]byte(`{"operator":"ob_ss","dataset":"nope"}`), &cu)
	require.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDividend_Bounds(t *testing.T) {
	covered := 0
	prevEnd := 0
	for i := range 3 {
		start, end := Dividend{Index: i, Count: 3}.Bounds(10)
		require.Equal(t, prevEnd, start)
		covered += end - start
		prevEnd = end
	}
	require.Equal(t, 10, covered)

	start, end := Dividend{Index: 3, Count: 3}.Bounds(10)
	require.Equal(t, 0, start)
	require.Equal(t, 0, end)
}

func TestDivisor(t *testing.T) {
	tests := []struct {
		name      string
		op        Operator
		ds        Dataset
		blockSize int
		max       int
		want      int
	}{
		{name: "single machine", op: GmxCommand{}, ds: DatasetTestChembl, blockSize: 100, want: 1},
		{name: "empty dataset", op: Substructure{}, ds: DatasetEmpty, blockSize: 100, want: 1},
		{name: "exact blocks", op: Substructure{}, ds: DatasetTestChembl, blockSize: 1000, want: 10},
		{name: "partial block", op: DefaultSimilarity(), ds: DatasetTestChembl, blockSize: 3000, want: 4},
		{name: "clamped", op: Substructure{}, ds: DatasetChembl30, blockSize: 1000, max: 64, want: 64},
		{name: "block larger than dataset", op: Substructure{}, ds: DatasetDummy, blockSize: 1000, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Divisor(tt.op, tt.ds, tt.blockSize, tt.max))
		})
	}
}
