package value

import "testing"

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"nil", Value{}, "nil"},
		{"number", Number(1.5), "1.5"},
		{"number whole", Number(3), "3"},
		{"string", String("hi"), "hi"},
		{"boolean true", Boolean(true), "true"},
		{"boolean false", Boolean(false), "false"},
		{"rule", FromRule(Rule{TypeTag: RuleTypeTag, ID: 7}), "<rule:7>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueTruthy(t *testing.T) {
	if (Value{}).Truthy() {
		t.Error("nil should not be truthy")
	}
	if Boolean(false).Truthy() {
		t.Error("false should not be truthy")
	}
	if !Boolean(true).Truthy() {
		t.Error("true should be truthy")
	}
	if !Number(0).Truthy() {
		t.Error("number zero should be truthy (only nil/false are falsy)")
	}
}

func TestRuleRoundTrip(t *testing.T) {
	r := Rule{TypeTag: RuleTypeTag, ID: 0xdeadbeef}
	buf, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != 6 {
		t.Fatalf("encoded length = %d, want 6", len(buf))
	}

	var got Rule
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != r {
		t.Errorf("round trip = %+v, want %+v", got, r)
	}
}

func TestRuleNoneSentinel(t *testing.T) {
	if !(Rule{}).IsNone() {
		t.Error("zero-value Rule should be the none sentinel")
	}
	if (Rule{ID: 1}).IsNone() {
		t.Error("Rule with id 1 should not be none")
	}
}
