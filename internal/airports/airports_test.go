package airports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvFixture = `"id","ident","type","name","latitude_deg","longitude_deg","elevation_ft","continent","iso_country","iso_region"
2434,"LSZH","large_airport","Zürich Airport",47.458056,8.548056,1417,"EU","CH","CH-ZH"
2376,"LSGG","large_airport","Geneva Cointrin International Airport",46.238098,6.10895,1411,"EU","CH","CH-GE"
9999,"XBAD","small_airport","Broken",north,east,,"EU","XX","XX-1"
1,"EDDF","large_airport","Frankfurt am Main Airport",50.033333,8.570556,,"EU","DE","DE-HE"
`

func TestReadDatabase(t *testing.T) {
	db, err := ReadDatabase(strings.NewReader(csvFixture))
	require.NoError(t, err)
	assert.Equal(t, 3, db.Len())

	ref, err := db.Lookup("lszh")
	require.NoError(t, err)
	assert.Equal(t, "Zürich Airport", ref.Name)
	assert.Equal(t, "CH", ref.Country)
	assert.Equal(t, 1417.0, ref.ElevationFt)

	ref, err = db.Lookup("EDDF")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ref.ElevationFt)

	_, err = db.Lookup("XBAD")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNilDatabase(t *testing.T) {
	var db *Database
	_, err := db.Lookup("LSZH")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, db.Len())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry([]Airport{
		{ICAO: "lszh", Name: "Zurich Airport", CeilingFt: 6000, Stands: true},
	})

	a, ok := reg.Get("LSZH")
	require.True(t, ok)
	assert.Equal(t, 6000.0, a.CeilingFt)

	db, err := ReadDatabase(strings.NewReader(csvFixture))
	require.NoError(t, err)

	added, isNew, err := reg.AddFromDatabase(db, "lsgg", 5000)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, added.Dynamic)
	assert.Equal(t, "LSGG", added.ICAO)

	_, isNew, err = reg.AddFromDatabase(db, "LSGG", 5000)
	require.NoError(t, err)
	assert.False(t, isNew)

	_, _, err = reg.AddFromDatabase(db, "ZZZZ", 5000)
	assert.ErrorIs(t, err, ErrNotFound)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "LSGG", list[0].ICAO)
	assert.Equal(t, "LSZH", list[1].ICAO)
}
