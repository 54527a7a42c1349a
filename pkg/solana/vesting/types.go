package vesting_reserve

type DataVersion uint8

const (
	UnknownDataVersion DataVersion = iota
	DataVersion1
)

type ReserveStatus uint8

const (
	ReserveStatusUnknown ReserveStatus = iota
	ReserveStatusPreCliff
	ReserveStatusVesting
	ReserveStatusComplete
	ReserveStatusClosed
)

func (s ReserveStatus) String() string {
	switch s {
	case ReserveStatusPreCliff:
		return "pre_cliff"
	case ReserveStatusVesting:
		return "vesting"
	case ReserveStatusComplete:
		return "complete"
	case ReserveStatusClosed:
		return "closed"
	}
	return "unknown"
}
