package codegen

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/dependencies/mocks"
	"github.com/mcoot/partygame/internal/dependencies/random"
	"github.com/mcoot/partygame/internal/model"
)

type GeneratorSuite struct {
	suite.Suite
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) TestGenerateUsesRandomSource() {
	r := mocks.NewMockRandom()
	r.QueueString("ABC234")

	code := New(r).Generate()

	s.Equal(model.PartyCode("ABC234"), code)
}

func (s *GeneratorSuite) TestGeneratedCodesAreWellFormed() {
	gen := New(random.New())
	for range 500 {
		code := gen.Generate()
		s.Len(string(code), Length)
		s.True(IsWellFormed(code), "code %q", code)
	}
}

func (s *GeneratorSuite) TestGeneratedCodesAvoidAmbiguousSymbols() {
	gen := New(random.New())
	for range 500 {
		s.NotContains(string(gen.Generate()), "0")
	}
	s.NotContains(Alphabet, "O")
	s.NotContains(Alphabet, "1")
	s.NotContains(Alphabet, "I")
	s.Len(Alphabet, 32)
}

func (s *GeneratorSuite) TestNormalize() {
	s.Equal(model.PartyCode("ABCD23"), Normalize("abcd23"))
	s.Equal(model.PartyCode("ABCD23"), Normalize("  AbCd23\n"))
	s.Equal(model.PartyCode(""), Normalize("   "))
}

func (s *GeneratorSuite) TestIsWellFormed() {
	s.True(IsWellFormed("ABCDEF"))
	s.False(IsWellFormed("ABCDE"))
	s.False(IsWellFormed("ABCDEFG"))
	s.False(IsWellFormed("ABCDE0"))
	s.False(IsWellFormed("abcdef"))
}
