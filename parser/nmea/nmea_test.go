package nmea_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/nmea"
)

var ts = time.Date(2015, 5, 28, 17, 26, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	s, err := nmea.Parse("$GPGLL,4916.45,N,12311.12,W,225444,A*31\r\n")
	require.NoError(t, err)
	require.Equal(t, "GP", s.Talker)
	require.Equal(t, "GLL", s.Type)
	require.Equal(t, []string{"4916.45", "N", "12311.12", "W", "225444", "A"}, s.Fields)

	// checksums are optional
	s, err = nmea.Parse("$GPGLL,4916.45,N,12311.12,W,225444,A\x00\x00")
	require.NoError(t, err)
	require.Len(t, s.Fields, 6)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", nmea.ErrSyntax},
		{"GPGLL,4916.45,N", nmea.ErrSyntax},
		{"$GP,1,2", nmea.ErrSyntax},
		{"$GPGLL,4916.45,N,12311.12,W,225444,A*ZZ", nmea.ErrSyntax},
		{"$GPGLL,4916.45,N,12311.12,W,225444,A*32", nmea.ErrChecksum},
	}

	for _, tt := range tests {
		_, err := nmea.Parse(tt.line)
		require.ErrorIs(t, err, tt.want, tt.line)
	}
}

func record(t *testing.T, line string) model.Record {
	t.Helper()

	s, err := nmea.Parse(line)
	require.NoError(t, err)
	rec, ok := s.Record("jsf:0", ts)
	require.True(t, ok, line)
	return rec
}

func TestGLL(t *testing.T) {
	p := record(t, "$GPGLL,4916.45,N,12311.12,W,225444,A*31").(*model.Position)
	require.Equal(t, "jsf:0", p.Source)
	require.True(t, p.Timestamp.Equal(ts))
	require.InDelta(t, 49+16.45/60, *p.Latitude, 1e-9)
	require.InDelta(t, -(123 + 11.12/60), *p.Longitude, 1e-9)
	require.Nil(t, p.Altitude)

	k, ok := p.Key()
	require.True(t, ok)
	require.Equal(t, model.KindPosition, k.Kind)
}

func TestInvalidFixHasNoCoordinates(t *testing.T) {
	p := record(t, "$GPGLL,,,,,225444,V*07").(*model.Position)
	require.Nil(t, p.Latitude)
	require.Nil(t, p.Longitude)

	p = record(t, "$GPGLL,4916.45,N,12311.12,W,225444,V").(*model.Position)
	require.Nil(t, p.Latitude)
	require.Nil(t, p.Longitude)

	// an unknown hemisphere drops both coordinates
	p = record(t, "$GPGLL,4916.45,X,12311.12,W,225444,A").(*model.Position)
	require.Nil(t, p.Latitude)
	require.Nil(t, p.Longitude)
}

func TestRMC(t *testing.T) {
	p := record(t, "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A").(*model.Position)
	require.InDelta(t, 48+7.038/60, *p.Latitude, 1e-9)
	require.InDelta(t, 11+31.0/60, *p.Longitude, 1e-9)
}

func TestGGA(t *testing.T) {
	p := record(t, "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47").(*model.Position)
	require.InDelta(t, 48+7.038/60, *p.Latitude, 1e-9)
	require.InDelta(t, 545.4, *p.Altitude, 1e-9)

	p = record(t, "$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,").(*model.Position)
	require.Nil(t, p.Latitude)
	require.Nil(t, p.Altitude)
}

func TestVTG(t *testing.T) {
	c := record(t, "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48").(*model.Course)
	require.InDelta(t, 54.7, *c.Heading, 1e-9)
	require.InDelta(t, 5.5*1852/3600, *c.Speed, 1e-9)

	c = record(t, "$GPVTG,,T,,M,,N,36.0,K").(*model.Course)
	require.Nil(t, c.Heading)
	require.InDelta(t, 10.0, *c.Speed, 1e-9)

	k, ok := c.Key()
	require.True(t, ok)
	require.Equal(t, model.KindCourse, k.Kind)
}

func TestOtherSentencesHaveNoRecord(t *testing.T) {
	s, err := nmea.Parse("$GPZDA,201530.00,04,07,2002,00,00*60")
	require.NoError(t, err)
	require.Equal(t, "ZDA", s.Type)

	_, ok := s.Record("jsf:0", ts)
	require.False(t, ok)
}
