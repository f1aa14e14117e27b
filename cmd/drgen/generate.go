package main

import (
	"errors"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ohowland/dres_core/internal/pkg/aggregator"
	"github.com/ohowland/dres_core/internal/pkg/database/mongodb"
	"github.com/ohowland/dres_core/internal/pkg/datastreams/natshandler"
	"github.com/ohowland/dres_core/internal/pkg/milp/virtualmilp"
	"github.com/ohowland/dres_core/internal/pkg/msg"
	"github.com/ohowland/dres_core/internal/pkg/scenario"
)

var generateCmd = &cli.Command{
	Name:    "generate",
	Usage:   "Sample a household population and assemble its MILP",
	Aliases: []string{"g"},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "households",
			Value: 40,
			Usage: "number of households to sample",
		},
		&cli.IntFlag{
			Name:  "horizon",
			Value: 24,
			Usage: "number of time steps",
		},
		&cli.Float64Flag{
			Name:  "delta-t",
			Value: 1.0,
			Usage: "step length in hours",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for the population draw",
		},
		&cli.BoolFlag{
			Name:  "relax",
			Usage: "declare indicator variables as continuous",
		},
		&cli.Float64Flag{
			Name:  "price",
			Value: 1.0,
			Usage: "flat energy price ($/kWh) applied to every step",
		},
		&cli.StringFlag{
			Name:  "profiles",
			Usage: "CSV with load, pv and temperature columns; synthetic shapes when omitted",
		},
		&cli.IntFlag{
			Name:  "begin",
			Value: 0,
			Usage: "first row of the profile CSV to use",
		},
		&cli.StringFlag{
			Name:  "params",
			Usage: "device parameter JSON, defaults when omitted",
		},
		&cli.StringFlag{
			Name:  "ownership",
			Usage: "ownership rate JSON, defaults when omitted",
		},
		&cli.StringFlag{
			Name:  "lp",
			Usage: "write the assembled model in LP format to this path",
		},
		&cli.StringFlag{
			Name:  "mongo",
			Usage: "MongoDB handler config; instance summaries are upserted when set",
		},
		&cli.StringFlag{
			Name:  "nats",
			Usage: "NATS handler config; instance summaries are streamed when set",
		},
	},
	Action: func(ctx *cli.Context) error {
		n := ctx.Int("households")
		horizon := ctx.Int("horizon")
		if n < 1 {
			return errors.New("invalid households")
		}
		if horizon < 1 {
			return errors.New("invalid horizon")
		}
		return doGenerate(ctx)
	},
}

func doGenerate(ctx *cli.Context) error {
	n := ctx.Int("households")
	horizon := ctx.Int("horizon")
	deltaT := ctx.Float64("delta-t")
	seed := ctx.Int64("seed")

	profiles, err := loadProfiles(ctx.String("profiles"), ctx.Int("begin"), horizon)
	if err != nil {
		return err
	}

	params := scenario.DefaultDeviceParams()
	if path := ctx.String("params"); path != "" {
		params, err = scenario.ReadDeviceParams(path)
		if err != nil {
			return err
		}
	}

	rates := scenario.DefaultOwnershipRates()
	if path := ctx.String("ownership"); path != "" {
		rates, err = scenario.ReadOwnershipRates(path)
		if err != nil {
			return err
		}
	}

	log.Printf("[DRGen] Sampling %d households over %d steps (seed %d)", n, horizon, seed)
	households, err := scenario.Generate(n, horizon, profiles, rates, params, seed)
	if err != nil {
		return err
	}

	price := make([]float64, horizon)
	for t := range price {
		price[t] = ctx.Float64("price")
	}
	loadMin, loadMax := scenario.TotalLoadBounds(n, horizon)
	cfg := aggregator.Config{
		Horizon:      horizon,
		DeltaT:       deltaT,
		Binaries:     !ctx.Bool("relax"),
		Price:        price,
		TotalLoadMin: loadMin,
		TotalLoadMax: loadMax,
	}

	model := virtualmilp.New()
	bctx, err := aggregator.Assemble(model, households, cfg)
	if err != nil {
		return err
	}

	summary := aggregator.Summarize(bctx, len(households))
	log.Printf("[DRGen] Assembled instance %s: %d variables (%d binary), %d constraints",
		summary.PID, summary.Variables, model.NumBinaries(), summary.Constraints)

	if path := ctx.String("lp"); path != "" {
		if err := writeLP(model, path); err != nil {
			return err
		}
		log.Println("[DRGen] Wrote LP file:", path)
	}

	return publishSummary(ctx, summary)
}

func loadProfiles(path string, begin, horizon int) (scenario.Profiles, error) {
	if path == "" {
		return syntheticProfiles(horizon), nil
	}
	p := scenario.Profiles{}
	columns := []struct {
		name string
		dst  *[]float64
	}{
		{"load", &p.LoadNorm},
		{"pv", &p.PVNorm},
		{"temperature", &p.Temperature},
	}
	for _, c := range columns {
		series, err := scenario.ReadSeries(path, c.name)
		if err != nil {
			return scenario.Profiles{}, err
		}
		series, err = scenario.Window(series, begin, horizon)
		if err != nil {
			return scenario.Profiles{}, err
		}
		*c.dst = series
	}
	var err error
	p.LoadNorm, err = scenario.Normalize(p.LoadNorm)
	if err != nil {
		return scenario.Profiles{}, err
	}
	p.PVNorm, err = scenario.Normalize(p.PVNorm)
	if err != nil {
		return scenario.Profiles{}, err
	}
	return p, nil
}

// syntheticProfiles builds mean-1 load and PV shapes and a mild exterior
// temperature swing. The window starts at 5am: the load peaks in the evening,
// PV production is centered on hour 8 of the window (1pm).
func syntheticProfiles(horizon int) scenario.Profiles {
	load := make([]float64, horizon)
	pv := make([]float64, horizon)
	temp := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		h := float64(t % 24)
		load[t] = 1.0 + 0.5*math.Sin(2*math.Pi*(h-10)/24)
		pv[t] = math.Max(0, math.Sin(math.Pi*(h-1)/14))
		temp[t] = 8.0 + 4.0*math.Sin(2*math.Pi*(h-4)/24)
	}
	if norm, err := scenario.Normalize(pv); err == nil {
		pv = norm
	}
	return scenario.Profiles{LoadNorm: load, PVNorm: pv, Temperature: temp}
}

func writeLP(model *virtualmilp.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return model.WriteLP(f)
}

func publishSummary(ctx *cli.Context, summary aggregator.Summary) error {
	mongoPath := ctx.String("mongo")
	natsPath := ctx.String("nats")
	if mongoPath == "" && natsPath == "" {
		return nil
	}

	// Summaries are keyed downstream by sender PID, so the publisher
	// impersonates the assembled instance.
	pid, err := uuid.Parse(summary.PID)
	if err != nil {
		return err
	}
	pub := msg.NewPublisher(pid)

	var done []chan bool

	if mongoPath != "" {
		handler, err := mongodb.New(mongoPath, pub)
		if err != nil {
			return err
		}
		ch := make(chan bool)
		done = append(done, ch)
		go func() {
			handler.Process()
			close(ch)
		}()
	}

	if natsPath != "" {
		handler, err := natshandler.New(natsPath, pub)
		if err != nil {
			return err
		}
		ch := make(chan bool)
		done = append(done, ch)
		go func() {
			handler.Process()
			close(ch)
		}()
	}

	pub.Publish(msg.Instance, summary)

	// closing the publisher closes every subscription; each handler drains
	// its inbox and returns.
	pub.Stop()
	for _, ch := range done {
		select {
		case <-ch:
		case <-time.After(10 * time.Second):
			log.Println("[DRGen] handler shutdown timed out")
		}
	}
	return nil
}
