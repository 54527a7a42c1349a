package presale_vault

type DataVersion uint8

const (
	UnknownDataVersion DataVersion = iota
	DataVersion1
)

type VaultStatus uint8

const (
	VaultStatusUnknown VaultStatus = iota
	VaultStatusActive
	VaultStatusExpired
	VaultStatusClosed
)

func (s VaultStatus) String() string {
	switch s {
	case VaultStatusActive:
		return "active"
	case VaultStatusExpired:
		return "expired"
	case VaultStatusClosed:
		return "closed"
	}
	return "unknown"
}
