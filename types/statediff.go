package types

import (
	"github.com/halcyonlabs/starknode/felt"
)

// StateDiff is the per-block delta applied to global state.
type StateDiff struct {
	StorageDiffs              []ContractStorageDiff  `json:"storage_diffs"`
	DeprecatedDeclaredClasses []felt.Felt            `json:"deprecated_declared_classes"`
	DeclaredClasses           []DeclaredClassItem    `json:"declared_classes"`
	DeployedContracts         []DeployedContractItem `json:"deployed_contracts"`
	ReplacedClasses           []ReplacedClassItem    `json:"replaced_classes"`
	Nonces                    []NonceUpdate          `json:"nonces"`
}

type ContractStorageDiff struct {
	Address        felt.Felt      `json:"address"`
	StorageEntries []StorageEntry `json:"storage_entries"`
}

type StorageEntry struct {
	Key   felt.Felt `json:"key"`
	Value felt.Felt `json:"value"`
}

type DeclaredClassItem struct {
	ClassHash         felt.Felt `json:"class_hash"`
	CompiledClassHash felt.Felt `json:"compiled_class_hash"`
}

type DeployedContractItem struct {
	Address   felt.Felt `json:"address"`
	ClassHash felt.Felt `json:"class_hash"`
}

type ReplacedClassItem struct {
	ContractAddress felt.Felt `json:"contract_address"`
	ClassHash       felt.Felt `json:"class_hash"`
}

type NonceUpdate struct {
	ContractAddress felt.Felt `json:"contract_address"`
	Nonce           felt.Felt `json:"nonce"`
}

// Length is the number of individual state changes, e.g. for the
// state_diff_length header field.
func (d *StateDiff) Length() uint64 {
	n := uint64(len(d.DeprecatedDeclaredClasses) + len(d.DeclaredClasses) +
		len(d.DeployedContracts) + len(d.ReplacedClasses) + len(d.Nonces))
	for _, diff := range d.StorageDiffs {
		n += uint64(len(diff.StorageEntries))
	}
	return n
}
