package ethSigner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

const eip712DomainType = "EIP712Domain"

// SignTypedData hashes an EIP-712 JSON document and signs the digest.
func (s *Signer) SignTypedData(payload []byte, key KeyMaterial) (*Signature, error) {
	sig, _, err := s.SignTypedDataWithDigest(payload, key)
	return sig, err
}

// SignTypedDataWithDigest is SignTypedData that also returns the signed digest.
func (s *Signer) SignTypedDataWithDigest(payload []byte, key KeyMaterial) (sig *Signature, digest common.Hash, err error) {
	defer s.observe(OpSignTypedData, time.Now(), &err)

	digest, err = hashTypedData(OpSignTypedData, payload)
	if err != nil {
		return nil, common.Hash{}, err
	}
	sig, err = signHash(OpSignTypedData, digest.Bytes(), key)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return sig, digest, nil
}

// HashTypedData returns the EIP-712 digest of payload without signing it.
func HashTypedData(payload []byte) (common.Hash, error) {
	return hashTypedData("hash_typed_data", payload)
}

// ParseTypedData decodes and validates an EIP-712 JSON document. When the
// document does not declare EIP712Domain, it is derived from the domain fields present.
func ParseTypedData(payload []byte) (*apitypes.TypedData, error) {
	return parseTypedData("parse_typed_data", payload)
}

func hashTypedData(op string, payload []byte) (digest common.Hash, err error) {
	td, err := parseTypedData(op, payload)
	if err != nil {
		return common.Hash{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			digest = common.Hash{}
			err = newSignError(op, ErrEncoding, fmt.Errorf("failed to hash typed data with primary type %q: %v", td.PrimaryType, r))
		}
	}()
	raw, _, err := apitypes.TypedDataAndHash(*td)
	if err != nil {
		return common.Hash{}, newSignError(op, ErrEncoding, errors.Wrapf(err, "failed to hash typed data with primary type %q", td.PrimaryType))
	}
	return common.BytesToHash(raw), nil
}

func parseTypedData(op string, payload []byte) (*apitypes.TypedData, error) {
	if len(payload) == 0 {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("typed data payload is empty"))
	}

	var td apitypes.TypedData
	if err := json.Unmarshal(payload, &td); err != nil {
		return nil, newSignError(op, ErrInvalidArgument, errors.Wrap(err, "malformed typed data JSON"))
	}

	if td.PrimaryType == "" {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("primaryType is required"))
	}
	if len(td.Types) == 0 {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("types are required"))
	}
	if _, ok := td.Types[td.PrimaryType]; !ok && td.PrimaryType != eip712DomainType {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("primaryType %q is not defined in types", td.PrimaryType))
	}
	if domainIsEmpty(td.Domain) {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("domain is required"))
	}
	if td.Message == nil && td.PrimaryType != eip712DomainType {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("message is required"))
	}
	for typeName, fields := range td.Types {
		if typeName == "" {
			return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("type names must not be empty"))
		}
		for i, field := range fields {
			if field.Name == "" || field.Type == "" {
				return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("field %d of type %q must have a name and a type", i, typeName))
			}
		}
	}

	if _, ok := td.Types[eip712DomainType]; !ok {
		td.Types[eip712DomainType] = inferDomainType(td.Domain)
	}
	if td.PrimaryType != eip712DomainType {
		if err := checkMessageArrays(td.Types, td.PrimaryType, map[string]interface{}(td.Message), "message"); err != nil {
			return nil, newSignError(op, ErrInvalidArgument, err)
		}
	}
	return &td, nil
}

// checkMessageArrays walks value along typeName and rejects null array
// elements and fixed-size arrays of the wrong length. Other mismatches are
// left to the encoder.
func checkMessageArrays(types apitypes.Types, typeName string, value interface{}, path string) error {
	if elemType, size, ok := splitArrayType(typeName); ok {
		items, isSlice := value.([]interface{})
		if !isSlice {
			return nil
		}
		if size != "" {
			n, err := strconv.Atoi(size)
			if err != nil || n < 0 {
				return fmt.Errorf("%s: invalid array size in type %q", path, typeName)
			}
			if len(items) != n {
				return fmt.Errorf("%s: type %q requires %d elements, got %d", path, typeName, n, len(items))
			}
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return fmt.Errorf("%s: array element is null", itemPath)
			}
			if err := checkMessageArrays(types, elemType, item, itemPath); err != nil {
				return err
			}
		}
		return nil
	}

	fields, isStruct := types[typeName]
	if !isStruct {
		return nil
	}
	obj, isObject := value.(map[string]interface{})
	if !isObject {
		return nil
	}
	for _, field := range fields {
		if err := checkMessageArrays(types, field.Type, obj[field.Name], path+"."+field.Name); err != nil {
			return err
		}
	}
	return nil
}

// splitArrayType splits "T[N]" or "T[]" into T and N, using the outermost dimension.
func splitArrayType(typeName string) (elemType string, size string, ok bool) {
	if !strings.HasSuffix(typeName, "]") {
		return "", "", false
	}
	open := strings.LastIndex(typeName, "[")
	if open <= 0 {
		return "", "", false
	}
	return typeName[:open], typeName[open+1 : len(typeName)-1], true
}

func domainIsEmpty(domain apitypes.TypedDataDomain) bool {
	return domain.Name == "" && domain.Version == "" && domain.ChainId == nil &&
		domain.VerifyingContract == "" && domain.Salt == ""
}

// inferDomainType lists the populated domain fields in the order EIP-712 defines.
func inferDomainType(domain apitypes.TypedDataDomain) []apitypes.Type {
	fields := make([]apitypes.Type, 0, 5)
	if domain.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if domain.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	if domain.ChainId != nil {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if domain.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	if domain.Salt != "" {
		fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}
