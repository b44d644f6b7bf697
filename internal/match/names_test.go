package match

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dr. José García", "JOSE GARCIA"},
		{"JOSE GARCIA", "JOSE GARCIA"},
		{"  mr   John   Smith ", "JOHN SMITH"},
		{"ERIKSSON<<ANNA<MARIA", "ERIKSSON ANNA MARIA"},
		{"O'Brien, Seán", "OBRIEN SEAN"},
		{"Prof. Madam Curie", "CURIE"},
		{"", ""},
		{"Dr.", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"Dr. José García", "ERIKSSON<<ANNA<MARIA", "mr john smith", "Åsa Löfgren", ""}
	for _, in := range inputs {
		once := NormalizeName(in)
		if twice := NormalizeName(once); twice != once {
			t.Errorf("NormalizeName not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestFuzzyMatchIdentical(t *testing.T) {
	matched, score := FuzzyMatch("Anna Maria Eriksson", "Anna Maria Eriksson", 1.0)
	if !matched || score != 1.0 {
		t.Errorf("self match = (%v, %v), want (true, 1.0)", matched, score)
	}
}

func TestFuzzyMatchTokenOrder(t *testing.T) {
	matched, score := FuzzyMatch("John Doe", "Doe John", DefaultNameThreshold)
	if !matched {
		t.Errorf("order-swapped names did not match (score %v)", score)
	}
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0 for reordered tokens", score)
	}
}

func TestFuzzyMatchNearMiss(t *testing.T) {
	matched, score := FuzzyMatch("Anna Maria Eriksson", "Ana Maria Eriksson", DefaultNameThreshold)
	if !matched {
		t.Errorf("single-letter difference should clear 0.85, got %v", score)
	}

	matched, score = FuzzyMatch("Anna Eriksson", "Boris Petrov", DefaultNameThreshold)
	if matched {
		t.Errorf("unrelated names matched with score %v", score)
	}
}

func TestFuzzyMatchEmpty(t *testing.T) {
	if matched, score := FuzzyMatch("", "John Doe", 0.1); matched || score != 0.0 {
		t.Errorf("empty left = (%v, %v), want (false, 0.0)", matched, score)
	}
	if matched, score := FuzzyMatch("Dr.", "John Doe", 0.1); matched || score != 0.0 {
		t.Errorf("title-only left = (%v, %v), want (false, 0.0)", matched, score)
	}
}
