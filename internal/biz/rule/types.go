package rule

type RuleType string

const (
	RuleTypeRoundRobin    RuleType = "round-robin"
	RuleTypePriorityBased RuleType = "priority-based"
	RuleTypeResourceBased RuleType = "resource-based"
	RuleTypeCustom        RuleType = "custom"
)

func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeRoundRobin, RuleTypePriorityBased, RuleTypeResourceBased, RuleTypeCustom:
		return true
	}
	return false
}
