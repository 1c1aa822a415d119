package dag

import (
	"github.com/sirupsen/logrus"
)

// Composition is what a new unit needs from the DAG: its parents and the last
// stable ball it references.
type Composition struct {
	ParentUnits    []string `json:"parent_units"`
	LastStableBall string   `json:"last_ball"`
	LastStableUnit string   `json:"last_ball_unit"`
	LastStableMCI  int      `json:"last_ball_mci"`
}

// Composer chooses parents and the last stable ball for new units.
type Composer struct {
	store     Store
	mainChain MainChain
	logger    *logrus.Entry
}

// NewComposer creates a Composer reading from store. If mc is nil, the
// DefaultMainChain is used.
func NewComposer(store Store, mc MainChain, logger *logrus.Entry) *Composer {
	if mc == nil {
		mc = NewDefaultMainChain()
	}

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Composer{
		store:     store,
		mainChain: mc,
		logger:    logger.WithField("component", "composer"),
	}
}

// PickParentUnitsAndLastBall selects the parents of a new unit with the given
// witness list, finds the last stable ball, adjusts both until the ball is
// stable in view of the parents, and checks that the witness list does not
// drift along the main chain. All reads happen in one snapshot. Any failure
// aborts the composition and nothing partial is returned.
func (c *Composer) PickParentUnitsAndLastBall(witnesses []string) (*Composition, error) {
	if err := ValidateWitnessList(witnesses); err != nil {
		return nil, err
	}

	var comp *Composition

	err := c.store.View(func(snap Snapshot) error {
		parents, err := PickParentUnits(snap, witnesses)
		if err != nil {
			return err
		}

		lsb, err := FindLastStableMcBall(snap, witnesses)
		if err != nil {
			return err
		}

		adjusted, adjustedParents, err := AdjustLastStableMcBallAndParents(snap,
			c.mainChain,
			lsb.Unit,
			parents,
			witnesses)
		if err != nil {
			return err
		}

		if adjusted.Unit != lsb.Unit || len(adjustedParents) != len(parents) {
			c.logger.WithFields(logrus.Fields{
				"last_ball_unit":   lsb.Unit,
				"adjusted_unit":    adjusted.Unit,
				"parents":          parents,
				"adjusted_parents": adjustedParents,
			}).Debug("Adjusted last stable ball")
		}

		wlu, err := FindWitnessListUnit(snap, witnesses, adjusted.MainChainIndex)
		if err != nil {
			return err
		}

		fake := NewUnit("", adjustedParents...)
		fake.WitnessListUnit = wlu

		if err := c.mainChain.CheckWitnessListMutationsAlongMC(snap, fake, adjusted.Unit, witnesses); err != nil {
			return err
		}

		comp = &Composition{
			ParentUnits:    adjustedParents,
			LastStableBall: adjusted.Ball,
			LastStableUnit: adjusted.Unit,
			LastStableMCI:  adjusted.MainChainIndex,
		}
		return nil
	})
	if err != nil {
		c.logger.WithError(err).Debug("PickParentUnitsAndLastBall")
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"parents":        comp.ParentUnits,
		"last_ball_unit": comp.LastStableUnit,
		"last_ball_mci":  comp.LastStableMCI,
	}).Debug("Composed parents and last ball")

	return comp, nil
}
