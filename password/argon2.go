package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// Bounds accepted both in configuration and in stored hashes. The ceilings
// keep a corrupt row from driving Verify into a huge allocation.
const (
	floorMemoryKB    = 8 * 1024
	floorIterations  = 1
	floorParallelism = 1
	floorBytes       = 16

	ceilMemoryKB   = 4 * 1024 * 1024
	ceilIterations = 64
	ceilBytes      = 1024
)

var errMalformedPHC = errors.New("password: malformed argon2id hash")

// Argon2Config holds argon2id cost parameters.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c Argon2Config) validate() error {
	switch {
	case c.Memory < floorMemoryKB || c.Memory > ceilMemoryKB:
		return fmt.Errorf("password: argon2 memory must be within [%d, %d] KB", floorMemoryKB, ceilMemoryKB)
	case c.Time < floorIterations || c.Time > ceilIterations:
		return fmt.Errorf("password: argon2 time must be within [1, %d]", ceilIterations)
	case c.Parallelism < floorParallelism:
		return errors.New("password: argon2 parallelism must be >= 1")
	case c.SaltLength < floorBytes || c.SaltLength > ceilBytes:
		return fmt.Errorf("password: argon2 salt length must be within [%d, %d]", floorBytes, ceilBytes)
	case c.KeyLength < floorBytes || c.KeyLength > ceilBytes:
		return fmt.Errorf("password: argon2 key length must be within [%d, %d]", floorBytes, ceilBytes)
	}
	return nil
}

// phc is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		p.memory, p.time, p.parallelism,
		enc.EncodeToString(p.salt), enc.EncodeToString(p.key))
}

func (p phc) derive(digest []byte) []byte {
	return argon2.IDKey(digest, p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
}

func decodePHC(s string) (phc, error) {
	var out phc
	rest, ok := strings.CutPrefix(s, argon2Prefix)
	if !ok {
		return out, errMalformedPHC
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return out, errMalformedPHC
	}
	if fields[0] != "v="+strconv.Itoa(argon2.Version) {
		return out, fmt.Errorf("password: unsupported argon2 version %q", fields[0])
	}
	if err := out.decodeParams(fields[1]); err != nil {
		return out, err
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil || len(out.salt) < floorBytes || len(out.salt) > ceilBytes {
		return out, errMalformedPHC
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil || len(out.key) < floorBytes || len(out.key) > ceilBytes {
		return out, errMalformedPHC
	}
	return out, nil
}

// decodeParams expects exactly m, t and p, in any order.
func (p *phc) decodeParams(s string) error {
	pairs := strings.Split(s, ",")
	if len(pairs) != 3 {
		return errMalformedPHC
	}
	seen := map[string]bool{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || seen[k] {
			return errMalformedPHC
		}
		seen[k] = true

		bits := 32
		if k == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return errMalformedPHC
		}
		switch k {
		case "m":
			if n < floorMemoryKB || n > ceilMemoryKB {
				return errMalformedPHC
			}
			p.memory = uint32(n)
		case "t":
			if n < floorIterations || n > ceilIterations {
				return errMalformedPHC
			}
			p.time = uint32(n)
		case "p":
			if n < floorParallelism {
				return errMalformedPHC
			}
			p.parallelism = uint8(n)
		default:
			return errMalformedPHC
		}
	}
	return nil
}

type argon2Scheme struct {
	config Argon2Config
}

func newArgon2Scheme(cfg Argon2Config) (*argon2Scheme, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &argon2Scheme{config: cfg}, nil
}

func (a *argon2Scheme) hash(digest []byte) (string, error) {
	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
		key:         make([]byte, a.config.KeyLength),
	}
	if _, err := rand.Read(p.salt); err != nil {
		return "", err
	}
	p.key = p.derive(digest)
	return p.String(), nil
}

func (a *argon2Scheme) verify(digest []byte, encoded string) bool {
	p, err := decodePHC(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(p.derive(digest), p.key) == 1
}

func (a *argon2Scheme) needsUpgrade(encoded string) (bool, error) {
	p, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	c := a.config
	return p.memory < c.Memory || p.time < c.Time || p.parallelism < c.Parallelism ||
		uint32(len(p.key)) != c.KeyLength, nil
}
