package domain

// PremiumPrices holds plan prices in UZS.
type PremiumPrices struct {
	Monthly   int64 `json:"monthly"`
	Quarterly int64 `json:"quarterly"`
	HalfYear  int64 `json:"halfYear"`
	Yearly    int64 `json:"yearly"`
}

// Plan describes a purchasable premium period.
type Plan struct {
	Months int
	Days   int
	Price  int64
}

// Plans lists the purchasable plans in display order.
func (p PremiumPrices) Plans() []Plan {
	return []Plan{
		{Months: 1, Days: 30, Price: p.Monthly},
		{Months: 3, Days: 90, Price: p.Quarterly},
		{Months: 6, Days: 180, Price: p.HalfYear},
		{Months: 12, Days: 365, Price: p.Yearly},
	}
}

// PlanByMonths returns the plan with the given length.
func (p PremiumPrices) PlanByMonths(months int) (Plan, bool) {
	for _, plan := range p.Plans() {
		if plan.Months == months {
			return plan, true
		}
	}
	return Plan{}, false
}

type CardInfo struct {
	Number string `json:"number"`
	Holder string `json:"holder"`
}

// Settings is the singleton bot configuration edited from the admin panel.
type Settings struct {
	AboutBot              string
	SupportUsername       string
	AdminNotificationChat string
	ContactMessage        string
	WelcomeMessage        string
	Prices                PremiumPrices
	Card                  CardInfo
}
