package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPersonDisplay(t *testing.T) {
	alive := Person{FirstName: "Al", LastName: "Pacino", Born: date(1940, time.April, 25)}
	assert.Equal(t, "Pacino, Al (1940)", alive.Display())

	died := date(2000, time.January, 1)
	dead := Person{FirstName: "Stanley", LastName: "Kubrick", Born: date(1940, time.July, 26), Died: &died}
	assert.Equal(t, "Kubrick, Stanley (1940-2000)", dead.Display())
}

func TestMovieDisplay(t *testing.T) {
	m := Movie{Title: "The Matrix", Year: 1999}
	assert.Equal(t, "The Matrix (1999)", m.Display())
}

func TestValidVoteValue(t *testing.T) {
	assert.True(t, ValidVoteValue(VoteUp))
	assert.True(t, ValidVoteValue(VoteDown))
	assert.False(t, ValidVoteValue(0))
	assert.False(t, ValidVoteValue(2))
}
