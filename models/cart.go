package models

// Cart line kinds. Simple lines reference a catalog item directly;
// combo and soup lines are composed from several catalog entries and
// carry a minted identifier.
const (
	LineKindSimple = "simple"
	LineKindCombo  = "combo"
	LineKindSoup   = "soup"
)

// The two cart/order sections. Payment is tracked per section.
const (
	SectionFood  = "food"
	SectionDrink = "drink"
)

func ValidSection(s string) bool {
	return s == SectionFood || s == SectionDrink
}

// CartLine is one priced entry in a cart section or in a submitted
// order. Completed stays nil until the kitchen touches the line.
type CartLine struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Icon      string  `json:"icon,omitempty"`
	Detail    string  `json:"detail,omitempty"`
	Remark    string  `json:"remark,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Clone duplicates the line, including the completion flag, so edits on
// the copy never leak into a live order.
func (l CartLine) Clone() CartLine {
	out := l
	if l.Completed != nil {
		v := *l.Completed
		out.Completed = &v
	}
	return out
}

func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// SubtotalOf sums price x quantity over a section's lines.
func SubtotalOf(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// Cart holds the two ordered sections being composed on the counter
// screen. Insertion order is display order; line ids are unique within
// a section.
type Cart struct {
	Food  []CartLine `json:"food"`
	Drink []CartLine `json:"drink"`
}

func NewCart() *Cart {
	return &Cart{Food: []CartLine{}, Drink: []CartLine{}}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Food) == 0 && len(c.Drink) == 0
}

// Section returns a pointer to the named section's slice, or nil for an
// unknown section name.
func (c *Cart) Section(name string) *[]CartLine {
	switch name {
	case SectionFood:
		return &c.Food
	case SectionDrink:
		return &c.Drink
	}
	return nil
}

func (c *Cart) Clone() *Cart {
	return &Cart{
		Food:  CloneLines(c.Food),
		Drink: CloneLines(c.Drink),
	}
}

func (c *Cart) FoodTotal() float64 {
	return SubtotalOf(c.Food)
}

func (c *Cart) DrinkTotal() float64 {
	return SubtotalOf(c.Drink)
}

func (c *Cart) Total() float64 {
	return c.FoodTotal() + c.DrinkTotal()
}
