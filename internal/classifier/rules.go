package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group is a named, ordered list of keywords. The group name becomes the
// category when any keyword is a substring of the description.
type Group struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rules is the keyword configuration of a Classifier. Group order is
// significant: the first matching group wins.
type Rules struct {
	Exclude           []string `yaml:"exclude"`
	Income            []Group  `yaml:"income"`
	Expense           []Group  `yaml:"expense"`
	ExpenseIndicators []string `yaml:"expense_indicators"`
	IncomeBrands      []Group  `yaml:"income_brands"`
}

// DefaultRules returns the built-in UK keyword tables.
func DefaultRules() Rules {
	return Rules{
		Exclude: []string{
			"olowogboye", "olu olowogboye", "o a olowogboye", "oluwaseun",
			"wsx", "pot", "monzo pot", "transfer to", "transfer from", "internal transfer", "account transfer",
		},
		Income: []Group{
			{Name: "rideshare", Keywords: []string{"uber", "bolt", "freenow", "free now", "minicab", "ridde", "citywide"}},
			{Name: "horizonCars", Keywords: []string{"horizon", "buraqq", "horizon cars"}},
			{Name: "salary", Keywords: []string{"salary", "wage", "payroll", "hmrc refund"}},
			{Name: "refunds", Keywords: []string{"refund", "reimbursement", "cashback"}},
			{Name: "transfers", Keywords: []string{"bank transfer", "faster payment"}},
		},
		Expense: []Group{
			{Name: "fuel", Keywords: []string{"shell", "bp", "esso", "texaco", "jet", "gulf", "total", "petrol", "diesel", "fuel", "gas station"}},
			{Name: "parking", Keywords: []string{"parking", "park", "ncp", "q-park", "apcoa", "parkopedia"}},
			{Name: "transport", Keywords: []string{"tfl", "transport for london", "oyster", "congestion", "ulez", "dart charge", "toll"}},
			{Name: "carExpenses", Keywords: []string{"mot", "insurance", "car wash", "valeting", "tyres", "kwik fit", "halfords", "garage", "repair", "service"}},
			{Name: "groceries", Keywords: []string{"tesco", "sainsbury", "asda", "morrisons", "waitrose", "lidl", "aldi", "marks & spencer", "m&s", "co-op", "iceland"}},
			{Name: "restaurants", Keywords: []string{"restaurant", "cafe", "coffee", "starbucks", "costa", "nero", "pret", "mcdonald", "kfc", "burger king", "nando", "pizza", "takeaway", "deliveroo", "uber eats", "just eat"}},
			{Name: "bills", Keywords: []string{"rent", "council tax", "water", "electric", "gas", "broadband", "phone", "mobile", "vodafone", "ee", "o2", "three", "virgin", "bt", "sky"}},
			{Name: "subscriptions", Keywords: []string{"netflix", "spotify", "amazon prime", "apple", "google", "microsoft", "adobe", "gym", "membership"}},
			{Name: "shopping", Keywords: []string{"amazon", "ebay", "argos", "currys", "john lewis", "next", "zara", "h&m", "primark", "sports direct"}},
			{Name: "personal", Keywords: []string{"barber", "haircut", "salon", "pharmacy", "boots", "superdrug", "dentist", "doctor", "hospital"}},
			{Name: "generic", Keywords: []string{"payment", "purchase", "withdrawal", "atm", "cash", "direct debit", "standing order"}},
		},
		ExpenseIndicators: []string{"ltd", "limited", "store", "shop", "market", "service", "bill", "payment"},
		IncomeBrands: []Group{
			{Name: "uber", Keywords: []string{"uber"}},
			{Name: "bolt", Keywords: []string{"bolt"}},
			{Name: "freenow", Keywords: []string{"freenow", "free now"}},
			{Name: "horizoncars", Keywords: []string{"horizon", "buraqq"}},
			{Name: "other", Keywords: []string{"minicab", "ridde", "citywide"}},
		},
	}
}

// LoadRules reads a YAML rules file. Sections missing from the file keep
// their DefaultRules value.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules over DefaultRules and validates the result.
func ParseRules(data []byte) (Rules, error) {
	var overlay Rules
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Rules{}, fmt.Errorf("parsing rules: %w", err)
	}

	rules := DefaultRules()
	if overlay.Exclude != nil {
		rules.Exclude = overlay.Exclude
	}
	if overlay.Income != nil {
		rules.Income = overlay.Income
	}
	if overlay.Expense != nil {
		rules.Expense = overlay.Expense
	}
	if overlay.ExpenseIndicators != nil {
		rules.ExpenseIndicators = overlay.ExpenseIndicators
	}
	if overlay.IncomeBrands != nil {
		rules.IncomeBrands = overlay.IncomeBrands
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// SaveRules writes rules as YAML.
func SaveRules(path string, rules Rules) error {
	data, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// Validate rejects unnamed groups, duplicate group names within a table and
// blank keywords.
func (r Rules) Validate() error {
	var problems []string
	tables := []struct {
		name   string
		groups []Group
	}{
		{"income", r.Income},
		{"expense", r.Expense},
		{"income_brands", r.IncomeBrands},
	}
	for _, tbl := range tables {
		seen := make(map[string]bool)
		for i, g := range tbl.groups {
			if strings.TrimSpace(g.Name) == "" {
				problems = append(problems, fmt.Sprintf("%s[%d]: empty group name", tbl.name, i))
				continue
			}
			if seen[g.Name] {
				problems = append(problems, fmt.Sprintf("%s: duplicate group %q", tbl.name, g.Name))
			}
			seen[g.Name] = true
			for _, kw := range g.Keywords {
				if strings.TrimSpace(kw) == "" {
					problems = append(problems, fmt.Sprintf("%s.%s: blank keyword", tbl.name, g.Name))
				}
			}
		}
	}
	for _, kw := range r.Exclude {
		if strings.TrimSpace(kw) == "" {
			problems = append(problems, "exclude: blank keyword")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid rules: %s", strings.Join(problems, "; "))
	}
	return nil
}

// normalized returns a copy with all keywords lower-cased.
func (r Rules) normalized() Rules {
	lowerAll := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	lowerGroups := func(in []Group) []Group {
		out := make([]Group, len(in))
		for i, g := range in {
			out[i] = Group{Name: g.Name, Keywords: lowerAll(g.Keywords)}
		}
		return out
	}
	return Rules{
		Exclude:           lowerAll(r.Exclude),
		Income:            lowerGroups(r.Income),
		Expense:           lowerGroups(r.Expense),
		ExpenseIndicators: lowerAll(r.ExpenseIndicators),
		IncomeBrands:      lowerGroups(r.IncomeBrands),
	}
}
