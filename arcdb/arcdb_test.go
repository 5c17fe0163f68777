package arcdb

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
)

func testArcs() []*arc.Info {
	mk := func(i, j int, valid bool) *arc.Info {
		return &arc.Info{
			Cell: "MB_EXAMPLE1", ArcType: "hold",
			Pin: "CP", PinDir: "rise", RelPin: "D", RelPinDir: "fall",
			When: "E&!TE", Index1: i, Index2: j, Vector: "10FR",
			Template: "hold.sp", Valid: valid,
			NominalCPU: 20 * time.Second,
		}
	}
	return []*arc.Info{mk(1, 1, true), mk(1, 2, true), mk(2, 1, false)}
}

func TestNewDoc(t *testing.T) {
	a := testArcs()[0]
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	doc, err := newDoc(a, "run-1", "tt", now)
	require.NoError(t, err)

	fp, err := a.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a.Dir(), doc.Dir)
	assert.Equal(t, "(1,1)", doc.Point)
	assert.Len(t, doc.Fingerprint, 16)
	stored, err := strconv.ParseUint(doc.Fingerprint, 16, 64)
	require.NoError(t, err)
	assert.Equal(t, fp, stored)
	assert.Equal(t, 20.0, doc.NominalCPU)
	assert.Equal(t, now, doc.Saved)
}

// testStore needs a MongoDB server named by ARCDB_TEST_SERVER.
func testStore(t *testing.T) *Store {
	server := os.Getenv("ARCDB_TEST_SERVER")
	if server == "" {
		t.Skip("ARCDB_TEST_SERVER not set")
	}

	s, err := Dial(server, "arcdb_test", nil)
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	t.Cleanup(func() {
		_ = s.Drop()
		s.Close()
	})
	return s
}

func TestStore_SaveDirs(t *testing.T) {
	s := testStore(t)
	arcs := testArcs()

	n, err := s.Save(arcs, "tt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dirs, err := s.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{arcs[0].Dir(), arcs[1].Dir()}, dirs)

	n, err = s.Save(arcs, "tt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dirs, err = s.Dirs()
	require.NoError(t, err)
	assert.Len(t, dirs, 2)

	doc, err := s.Lookup(arcs[0].Dir())
	require.NoError(t, err)
	assert.Equal(t, s.Run(), doc.Run)
	assert.Equal(t, "tt", doc.Corner)

	_, err = s.Lookup(arcs[2].Dir())
	assert.Equal(t, mgo.ErrNotFound, err)
}

func TestStore_Changed(t *testing.T) {
	s := testStore(t)
	arcs := testArcs()

	_, err := s.Save(arcs[:1], "tt")
	require.NoError(t, err)

	dirs, err := s.Changed(arcs)
	require.NoError(t, err)
	assert.Empty(t, dirs)

	edited := *arcs[0]
	edited.Template = "hold_v2.sp"
	dirs, err = s.Changed([]*arc.Info{&edited, arcs[1], arcs[2]})
	require.NoError(t, err)
	assert.Equal(t, []string{arcs[0].Dir()}, dirs)
}
