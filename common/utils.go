package common

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	cn "github.com/elder-platform/elder/common/constant"
)

// Contains checks if an item is in a slice. This function uses type parameters to work with any slice type.
func Contains[T comparable](slice []T, item T) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}

	return false
}

// CheckMetadataKeyAndValueLength enforces the keymax/valuemax bound used on
// entity attribute maps and dependency metadata maps (spec §3).
func CheckMetadataKeyAndValueLength(limit int, metadata map[string]any) error {
	for k, v := range metadata {
		if len(k) > limit {
			return cn.ErrMetadataKeyLengthExceeded
		}

		var value string

		switch t := v.(type) {
		case int:
			value = strconv.Itoa(t)
		case float64:
			value = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			value = t
		case bool:
			value = strconv.FormatBool(t)
		}

		if len(value) > limit {
			return cn.ErrMetadataValueLengthExceeded
		}
	}

	return nil
}

var villageIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{8}$`)

// IsVillageID reports whether s matches the Village-ID wire format
// TTTT-OOOO-IIIIIIII (case-insensitive, spec §4.2).
func IsVillageID(s string) bool {
	return villageIDPattern.MatchString(s)
}

var uuidPattern = regexp.MustCompile("^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[1-5][a-fA-F0-9]{3}-[89abAB][a-fA-F0-9]{3}-[a-fA-F0-9]{12}$")

// IsUUID validates s is a well-formed UUID.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// GenerateUUIDv7 generates a new UUIDv7, used for internal surrogate keys
// (distinct from the public Village-ID).
func GenerateUUIDv7() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// StructToJSONString converts a struct to its JSON string representation,
// used for audit before/after snapshots prior to hashing.
func StructToJSONString(s any) (string, error) {
	jsonByte, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	return string(jsonByte), nil
}
