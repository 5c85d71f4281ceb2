package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	algArgon2id = "argon2id"
	algArgon2i  = "argon2i"

	minTimeCost    uint32 = 1
	minMemoryKiB   uint32 = 8 * 1024
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

var (
	ErrMalformedHash       = errors.New("malformed password hash")
	ErrUnsupportedHash     = errors.New("unsupported password hash algorithm")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the argon2id cost parameters applied to new hashes.
type Params struct {
	Time        uint32 // iterations
	Memory      uint32 // KiB
	Parallelism uint8
	SaltLength  uint32 // bytes
	KeyLength   uint32 // bytes
}

// DefaultParams matches the argon2 reference defaults (RFC 9106 second recommendation).
func DefaultParams() Params {
	return Params{
		Time:        3,
		Memory:      64 * 1024,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameters below the accepted minimums.
func (p Params) Validate() error {
	if p.Time < minTimeCost {
		return fmt.Errorf("hash time must be >= %d", minTimeCost)
	}
	if p.Memory < minMemoryKiB {
		return fmt.Errorf("hash memory must be >= %d KiB", minMemoryKiB)
	}
	if p.Parallelism < minParallelism {
		return fmt.Errorf("hash parallelism must be >= %d", minParallelism)
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return errors.New("hash memory must be >= 8 KiB per lane")
	}
	if p.SaltLength < minSaltLength {
		return fmt.Errorf("hash salt length must be >= %d", minSaltLength)
	}
	if p.KeyLength < minKeyLength {
		return fmt.Errorf("hash key length must be >= %d", minKeyLength)
	}
	return nil
}

// Argon2 hashes new passwords with argon2id and verifies argon2id, argon2i and
// legacy bcrypt hashes.
type Argon2 struct {
	params Params
}

type phc struct {
	alg         string
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func NewArgon2(p Params) (*Argon2, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{params: p}, nil
}

// Params returns the parameters used for new hashes.
func (a *Argon2) Params() Params { return a.params }

// Hash returns a PHC string:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<lanes>$<salt>$<hash>
//
// Salt and hash use unpadded standard base64. Every call draws a fresh salt.
func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algArgon2id,
		argon2.Version,
		a.params.Memory,
		a.params.Time,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. A mismatch is (false, nil); an
// unparsable or unsupported hash is an error.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	}

	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	var computed []byte
	keyLen := uint32(len(h.hash))
	switch h.alg {
	case algArgon2id:
		computed = argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.parallelism, keyLen)
	case algArgon2i:
		computed = argon2.Key([]byte(password), h.salt, h.time, h.memory, h.parallelism, keyLen)
	}

	return subtle.ConstantTimeCompare(computed, h.hash) == 1, nil
}

// NeedsRehash reports whether encoded was produced under weaker parameters than the
// current ones, or by a scheme other than argon2id.
func (a *Argon2) NeedsRehash(encoded string) (bool, error) {
	if isBcrypt(encoded) {
		return true, nil
	}
	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	if h.alg != algArgon2id {
		return true, nil
	}
	switch {
	case h.memory < a.params.Memory,
		h.time < a.params.Time,
		h.parallelism < a.params.Parallelism,
		uint32(len(h.salt)) < a.params.SaltLength,
		uint32(len(h.hash)) < a.params.KeyLength:
		return true, nil
	}
	return false, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}

	h := &phc{alg: parts[1]}
	if h.alg != algArgon2id && h.alg != algArgon2i {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHash, h.alg)
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleVersion
	}

	if err := parseParams(parts[3], h); err != nil {
		return nil, err
	}

	if h.salt, err = decodeB64(parts[4]); err != nil || len(h.salt) == 0 {
		return nil, ErrMalformedHash
	}
	if h.hash, err = decodeB64(parts[5]); err != nil || len(h.hash) == 0 {
		return nil, ErrMalformedHash
	}
	return h, nil
}

func parseParams(part string, h *phc) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return ErrMalformedHash
	}

	var memorySet, timeSet, parallelismSet bool
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return ErrMalformedHash
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return ErrMalformedHash
			}
			h.memory, memorySet = uint32(n), true
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 {
				return ErrMalformedHash
			}
			h.time, timeSet = uint32(n), true
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < 1 {
				return ErrMalformedHash
			}
			h.parallelism, parallelismSet = uint8(n), true
		default:
			return ErrMalformedHash
		}
	}
	if !memorySet || !timeSet || !parallelismSet {
		return ErrMalformedHash
	}
	if h.memory < 8*uint32(h.parallelism) {
		return ErrMalformedHash
	}
	return nil
}

// decodeB64 accepts both padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
