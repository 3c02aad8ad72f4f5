package cache

import (
	"strconv"

	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash creates a 64-bit highwayhash for the input data.
func Hash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// HashString returns the hex form of Hash for text content.
func HashString(text string) (string, error) {
	sum, err := Hash([]byte(text))
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(sum, 16), nil
}
