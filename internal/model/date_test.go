package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-06-01 ")
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", d.String())
	require.Equal(t, time.UTC, d.Location())

	for _, bad := range []string{"", "2024-02-30", "06/01/2024", "tomorrow"} {
		_, err := ParseDate(bad)
		require.Error(t, err, bad)
	}
}

func TestDateJSONAndScan(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)

	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	require.NoError(t, err)
	require.JSONEq(t, `{"d":"2024-06-01"}`, string(b))

	var back struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	require.True(t, back.D.Equal(d.Time))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan([]byte("2024-06-02")))
	require.Equal(t, "2024-06-02", scanned.String())
	require.Error(t, scanned.Scan(42))

	v, err := d.Value()
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", v)
	require.Equal(t, "2024-06-03", d.AddDays(2).String())
}

func TestClock(t *testing.T) {
	c, err := NormalizeClock("10:00:00")
	require.NoError(t, err)
	require.Equal(t, "10:00", c)

	s, e, err := ValidateSpan("10:00", "11:30:00")
	require.NoError(t, err)
	require.Equal(t, "10:00-11:30", Timeslot{StartTime: s, EndTime: e}.Label())

	_, _, err = ValidateSpan("11:00", "10:00")
	require.Error(t, err)
	_, err = NormalizeClock("25:00")
	require.Error(t, err)
}

func TestCanAdminister(t *testing.T) {
	require.True(t, Principal{Role: RoleAdmin}.CanAdminister())
	require.False(t, Principal{Role: RoleCustomer}.CanAdminister())
	require.False(t, Principal{}.CanAdminister())
	require.Equal(t, "bob", Principal{Username: "bob"}.DisplayName())
	require.Equal(t, "Bob B", User{Username: "bob", Name: "Bob B"}.DisplayName())
}
