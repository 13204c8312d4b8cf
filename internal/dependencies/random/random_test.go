package random

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type RandomSuite struct {
	suite.Suite
	r *CryptoRandom
}

func TestRandomSuite(t *testing.T) {
	suite.Run(t, new(RandomSuite))
}

func (s *RandomSuite) SetupTest() {
	s.r = New()
}

func (s *RandomSuite) TestIntnInRange() {
	for range 200 {
		n := s.r.Intn(7)
		s.GreaterOrEqual(n, 0)
		s.Less(n, 7)
	}
	s.Equal(0, s.r.Intn(0))
}

func (s *RandomSuite) TestStringUsesAlphabet() {
	out := s.r.String(64, "AB")
	s.Len(out, 64)
	s.Empty(strings.Trim(out, "AB"))
	s.Empty(s.r.String(0, "AB"))
	s.Empty(s.r.String(5, ""))
}

func (s *RandomSuite) TestUUIDIsVersion4() {
	id, err := uuid.Parse(s.r.UUID())
	s.Require().NoError(err)
	s.Equal(uuid.Version(4), id.Version())
}
