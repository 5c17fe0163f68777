// Package arcdb keeps a MongoDB record of the arcs a generator run wrote,
// keyed by deck directory.
package arcdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

const (
	DB               = "qagen"
	MaxInsertWorkers = 8
	DialTimeout      = 10 * time.Second
)

// Doc is the stored form of one arc.
type Doc struct {
	Dir         string    `bson:"dir"`
	Run         string    `bson:"run"`
	Corner      string    `bson:"corner"`
	Fingerprint string    `bson:"fingerprint"`
	Cell        string    `bson:"cell"`
	ArcType     string    `bson:"arc_type"`
	Pin         string    `bson:"pin"`
	PinDir      string    `bson:"pin_dir"`
	RelPin      string    `bson:"rel_pin"`
	RelPinDir   string    `bson:"rel_pin_dir"`
	When        string    `bson:"when"`
	Point       string    `bson:"point"`
	Index3      int       `bson:"index3"`
	Vector      string    `bson:"vector"`
	Template    string    `bson:"template"`
	NominalCPU  float64   `bson:"nominal_cpu"`
	MonteCPU    float64   `bson:"monte_cpu"`
	Saved       time.Time `bson:"saved"`
}

func newDoc(a *arc.Info, run, corner string, now time.Time) (Doc, error) {
	fp, err := fingerprint(a)
	if err != nil {
		return Doc{}, err
	}
	return Doc{
		Dir:         a.Dir(),
		Run:         run,
		Corner:      corner,
		Fingerprint: fp,
		Cell:        a.Cell,
		ArcType:     a.ArcType,
		Pin:         a.Pin,
		PinDir:      a.PinDir,
		RelPin:      a.RelPin,
		RelPinDir:   a.RelPinDir,
		When:        a.When,
		Point:       a.Point(),
		Index3:      a.Index3,
		Vector:      a.Vector,
		Template:    a.Template,
		NominalCPU:  a.NominalCPU.Seconds(),
		MonteCPU:    a.MonteCPU.Seconds(),
		Saved:       now,
	}, nil
}

func fingerprint(a *arc.Info) (string, error) {
	fp, err := a.Fingerprint()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", fp), nil
}

type Store struct {
	session *mgo.Session
	coll    string
	run     string
	log     *logger.Logger
}

// Dial connects to server and opens the store of cache.
func Dial(server, cache string, log *logger.Logger) (*Store, error) {
	session, err := mgo.DialWithTimeout(server, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("arcdb: dial %s: %w", server, err)
	}
	defer session.Close()

	return New(session, cache, log)
}

// New opens the store of cache on a copy of session and makes sure the
// directory index exists. Every Store gets a fresh run id.
func New(session *mgo.Session, cache string, log *logger.Logger) (*Store, error) {
	s := &Store{
		session: session.Copy(),
		coll:    cache + "_arcs",
		run:     uuid.NewString(),
		log:     logger.Or(log).With("component", "arcdb", "cache", cache),
	}

	if err := s.ensureIndex(); err != nil {
		s.session.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndex() error {
	return s.session.DB(DB).C(s.coll).EnsureIndex(mgo.Index{
		Key:    []string{"dir"},
		Unique: true,
	})
}

func (s *Store) Close() {
	s.session.Close()
}

// Run is the id stamped on every document this Store saves.
func (s *Store) Run() string {
	return s.run
}

// Save upserts the valid arcs through a bounded pool of inserters and
// returns how many were written.
func (s *Store) Save(arcs []*arc.Info, corner string) (int, error) {
	now := time.Now().UTC()
	p := pool.New().WithErrors().WithMaxGoroutines(MaxInsertWorkers)

	var n int
	for _, a := range arcs {
		if !a.Valid {
			continue
		}
		doc, err := newDoc(a, s.run, corner, now)
		if err != nil {
			return 0, err
		}
		n++

		p.Go(func() error {
			session := s.session.Copy()
			defer session.Close()

			_, err := session.DB(DB).C(s.coll).Upsert(bson.M{"dir": doc.Dir}, doc)
			if err != nil {
				return fmt.Errorf("arcdb: save %s: %w", doc.Dir, err)
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return 0, err
	}

	s.log.Infof("saved %d arcs, run %s", n, s.run)
	return n, nil
}

// Dirs lists the stored deck directories in ascending order.
func (s *Store) Dirs() ([]string, error) {
	c := s.session.DB(DB).C(s.coll)
	it := c.Find(nil).Select(bson.M{"_id": 0, "dir": 1}).Sort("dir").Iter()

	var dirs []string
	var result struct {
		Dir string `bson:"dir"`
	}
	for it.Next(&result) {
		dirs = append(dirs, result.Dir)
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return dirs, nil
}

// Lookup returns the stored document of dir, or mgo.ErrNotFound.
func (s *Store) Lookup(dir string) (*Doc, error) {
	var doc Doc
	err := s.session.DB(DB).C(s.coll).Find(bson.M{"dir": dir}).One(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Changed returns, in input order, the directories of the valid arcs whose
// stored fingerprint differs from their current one. Arcs the store has not
// seen are not reported.
func (s *Store) Changed(arcs []*arc.Info) ([]string, error) {
	var dirs []string
	for _, a := range arc.ValidArcs(arcs) {
		doc, err := s.Lookup(a.Dir())
		if err == mgo.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("arcdb: lookup %s: %w", a.Dir(), err)
		}

		fp, err := fingerprint(a)
		if err != nil {
			return nil, err
		}
		if doc.Fingerprint != fp {
			s.log.Debugf("%s: fingerprint %s, stored %s", a.Dir(), fp, doc.Fingerprint)
			dirs = append(dirs, a.Dir())
		}
	}
	return dirs, nil
}

// Drop removes the store's collection. A store that was never written is
// not an error.
func (s *Store) Drop() error {
	err := s.session.DB(DB).C(s.coll).DropCollection()
	if err != nil && err.Error() == "ns not found" {
		return nil
	}
	return err
}

// Reset empties the store and keeps it usable.
func (s *Store) Reset() error {
	if err := s.Drop(); err != nil {
		return err
	}
	return s.ensureIndex()
}
