package loi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Crossing is an instant where the target crosses the equatorial plane.
type Crossing struct {
	Epoch     time.Time `json:"epoch" yaml:"epoch"`
	Ascending bool      `json:"ascending" yaml:"ascending"` // declination goes from negative to positive
}

func (c Crossing) String() string {
	node := "descending"
	if c.Ascending {
		node = "ascending"
	}
	return fmt.Sprintf("%s (%s)", c.Epoch.UTC().Format(time.RFC3339), node)
}

// FindPlaneCrossings returns, in chronological order, every instant within
// [start, end] where the declination of the target changes sign. The
// declination is sampled every Profile.ScanStep and each sign change is refined
// by the ephemeris root finder.
func (p *Planner) FindPlaneCrossings(start, end time.Time) ([]Crossing, error) {
	if end.Before(start) {
		return nil, errors.Errorf("search window ends (%s) before it starts (%s)", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	crossings := []Crossing{}
	prevT := start
	prevDec, err := p.ephemeris.DeclinationAt(prevT)
	if err != nil {
		return nil, errors.Wrap(err, "declination scan")
	}
	for prevT.Before(end) {
		t := prevT.Add(p.profile.ScanStep)
		if t.After(end) {
			t = end
		}
		dec, err := p.ephemeris.DeclinationAt(t)
		if err != nil {
			return nil, errors.Wrap(err, "declination scan")
		}
		if (prevDec < 0 && dec >= 0) || (prevDec > 0 && dec <= 0) {
			root, err := p.ephemeris.FindCrossing(p.ephemeris.DeclinationAt, prevT, t)
			if err != nil {
				return nil, errors.Wrapf(err, "refining crossing between %s and %s", prevT.Format(time.RFC3339), t.Format(time.RFC3339))
			}
			c := Crossing{Epoch: root, Ascending: prevDec < 0}
			level.Debug(p.logger).Log("subsys", "epoch", "crossing", c)
			crossings = append(crossings, c)
		}
		prevT, prevDec = t, dec
	}
	level.Info(p.logger).Log("subsys", "epoch", "start", start.Format(time.RFC3339), "end", end.Format(time.RFC3339), "crossings", len(crossings))
	return crossings, nil
}

// FindOptimalEpochs returns the candidate insertion epochs within [start, end],
// i.e. the instants at which the target lies in the equatorial plane.
func (p *Planner) FindOptimalEpochs(start, end time.Time) ([]time.Time, error) {
	crossings, err := p.FindPlaneCrossings(start, end)
	if err != nil {
		return nil, err
	}
	epochs := make([]time.Time, len(crossings))
	for k, c := range crossings {
		epochs[k] = c.Epoch
	}
	return epochs, nil
}

// RankedEpoch is the outcome of the multi-start search at one candidate epoch.
type RankedEpoch struct {
	Epoch  time.Time          `json:"epoch" yaml:"epoch"`
	Result OptimizationResult `json:"result" yaml:"result"`
}

// RankEpochs runs the multi-start search at every epoch with Profile.Workers
// goroutines and returns the epochs sorted by increasing closest approach.
// Ties keep the input order. The first error stops the ranking.
func (p *Planner) RankEpochs(ctx context.Context, epochs []time.Time, ω, i float64) ([]RankedEpoch, error) {
	if len(epochs) == 0 {
		return []RankedEpoch{}, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := p.profile.Workers
	if workers < 1 {
		workers = 1
	}
	type rankJob struct {
		index int
		epoch time.Time
	}
	jobs := make(chan rankJob, workers*2)
	ranked := make([]RankedEpoch, len(epochs))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, err := p.OptimizeTransferMultiStart(job.epoch, ω, i)
				if err != nil {
					errOnce.Do(func() {
						firstErr = errors.Wrapf(err, "ranking epoch %s", job.epoch.Format(time.RFC3339))
						cancel()
					})
					continue
				}
				ranked[job.index] = RankedEpoch{Epoch: job.epoch, Result: res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for k, e := range epochs {
			select {
			case jobs <- rankJob{k, e}:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Result.DistanceKm < ranked[b].Result.DistanceKm
	})
	return ranked, nil
}
