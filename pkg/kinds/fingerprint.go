package kinds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type FingerprintFamily string

const (
	FP2    FingerprintFamily = "fp2"
	FP3    FingerprintFamily = "fp3"
	FP4    FingerprintFamily = "fp4"
	ECFP0  FingerprintFamily = "ecfp0"
	ECFP2  FingerprintFamily = "ecfp2"
	ECFP4  FingerprintFamily = "ecfp4"
	ECFP6  FingerprintFamily = "ecfp6"
	ECFP8  FingerprintFamily = "ecfp8"
	ECFP10 FingerprintFamily = "ecfp10"
)

// fingerprintPackage is the only fingerprint provider known today.
const fingerprintPackage = "ob"

var fingerprintFamilies = []FingerprintFamily{FP2, FP3, FP4, ECFP0, ECFP2, ECFP4, ECFP6, ECFP8, ECFP10}

var (
	ErrFingerprintFormat = errors.New("fingerprint must be in format (package)_(fingerprint)_(nbits), e.g. ob_ecfp2_512")
	ErrFingerprintNBits  = errors.New("fingerprint nbits is not an integer")
	ErrFingerprintType   = errors.New("fingerprint type not found")
)

// Fingerprint identifies a fixed-width fingerprint descriptor.
type Fingerprint struct {
	Family FingerprintFamily
	NBits  uint32
}

// FingerprintFamilies lists the supported families in a stable order.
func FingerprintFamilies() []FingerprintFamily {
	return append([]FingerprintFamily(nil), fingerprintFamilies...)
}

func DefaultFingerprint() Fingerprint {
	return Fingerprint{Family: ECFP4, NBits: 2048}
}

func NewFingerprint(pkg string, family string, nbits uint32) (Fingerprint, error) {
	if pkg != fingerprintPackage {
		return Fingerprint{}, fmt.Errorf("%w: package %s, fingerprint %s", ErrFingerprintType, pkg, family)
	}
	for _, f := range fingerprintFamilies {
		if string(f) == family {
			return Fingerprint{Family: f, NBits: nbits}, nil
		}
	}
	return Fingerprint{}, fmt.Errorf("%w: package %s, fingerprint %s", ErrFingerprintType, pkg, family)
}

// ParseFingerprint parses the text form produced by Fingerprint.String.
func ParseFingerprint(s string) (Fingerprint, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return Fingerprint{}, fmt.Errorf("%w: %q", ErrFingerprintFormat, s)
	}
	nbits, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %q", ErrFingerprintNBits, parts[2])
	}
	return NewFingerprint(parts[0], parts[1], uint32(nbits))
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s_%s_%d", fingerprintPackage, f.Family, f.NBits)
}

// Words is the number of 32-bit words a packed fingerprint of this kind occupies.
func (f Fingerprint) Words() int {
	return int((f.NBits + 31) / 32)
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
