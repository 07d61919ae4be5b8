package domain

// Rule правило сопоставления из движка правил бэкенда.
type Rule struct {
	RuleID    string `json:"ruleId"`
	Domain    string `json:"domain"`    // например, "LifeSciences"
	Condition string `json:"condition"` // условие в DSL движка
	Action    string `json:"action"`
}
