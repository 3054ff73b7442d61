// cmd/fplan/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// fplan builds a flight plan from a CIFP navigation database and prints
// it. The plan can be saved, pushed to a host over RPC, or, with -serve,
// this program can stand in for the host and print the routes it is sent.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/flightplan"
	"github.com/mmp/fmc/hostsync"
	"github.com/mmp/fmc/log"

	"github.com/goforj/godump"
)

var (
	logLevel = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir   = flag.String("logdir", "", "log file directory")

	cifpFiles    = flag.String("cifp", "", "comma-separated list of CIFP files (optionally zstd-compressed)")
	magneticGrid = flag.String("magnetic", "", "magnetic declination grid file (optionally zstd-compressed)")
	variation    = flag.Float64("variation", 0, "fixed magnetic variation, degrees east, if no grid is given")

	origin          = flag.String("origin", "", "origin airport")
	destination     = flag.String("dest", "", "destination airport")
	route           = flag.String("route", "", "space-separated enroute fixes")
	cruise          = flag.Int("cruise", 0, "cruise altitude")
	departureRunway = flag.String("deprwy", "", "departure runway")
	sid             = flag.String("sid", "", "departure procedure")
	sidTransition   = flag.String("sidtrans", "", "departure enroute transition")
	star            = flag.String("star", "", "arrival procedure")
	starTransition  = flag.String("startrans", "", "arrival enroute transition")
	approach        = flag.String("approach", "", "approach procedure")
	approachTrans   = flag.String("apptrans", "", "approach transition")
	arrivalRunway   = flag.String("arrrwy", "", "landing runway, if no approach is given")
	runwayExtension = flag.Float64("extension", -1, "length in nm of the final approach course built to -arrrwy")
	directTarget    = flag.String("direct", "", "proceed direct to this waypoint in the plan from -position")
	position        = flag.String("position", "", "current position for -direct, as lat,long")
	reverse         = flag.Bool("reverse", false, "reverse the plan after building it")
	loadPlan        = flag.String("load", "", "load a saved plan instead of building one")
	savePlan        = flag.String("save", "", "save the plan to this file")
	dump            = flag.Bool("dump", false, "dump the plan's internal representation rather than listing it")
	hostAddress     = flag.String("host", "", "push the plan to the host at this address")
	serveAddress    = flag.String("serve", "", "act as a host, listening at this address, and print the routes received")
	syncInterval    = flag.Duration("interval", 0, "with -host, keep pushing the plan at this interval until interrupted")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *serveAddress != "" {
		if err := serve(ctx, *serveAddress, lg); err != nil && ctx.Err() == nil {
			fatal(lg, "%s: %v", *serveAddress, err)
		}
		return
	}

	fp, err := makePlan(ctx, lg)
	if err != nil {
		fatal(lg, "%v", err)
	}
	if err := fp.CheckInvariants(); err != nil {
		fatal(lg, "%v", err)
	}

	if *dump {
		godump.Dump(fp.Snapshot())
	} else {
		listing, err := planListing(fp)
		if err != nil {
			fatal(lg, "%v", err)
		}
		fmt.Println(string(listing))
	}

	if *savePlan != "" {
		if err := fp.SaveFile(*savePlan); err != nil {
			fatal(lg, "%s: %v", *savePlan, err)
		}
		lg.Infof("%s: saved flight plan", *savePlan)
	}

	if *hostAddress != "" {
		if err := push(ctx, fp, lg); err != nil && ctx.Err() == nil {
			fatal(lg, "%s: %v", *hostAddress, err)
		}
	}
}

func fatal(lg *log.Logger, msg string, args ...any) {
	lg.Errorf(msg, args...)
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func makePlan(ctx context.Context, lg *log.Logger) (*flightplan.FlightPlan, error) {
	mag, err := magneticModel()
	if err != nil {
		return nil, err
	}
	opts := []flightplan.Option{
		flightplan.WithGeodesy(flightplan.EarthGeodesy{Magnetic: mag}),
		flightplan.WithLogger(lg),
	}

	if *loadPlan != "" {
		return flightplan.LoadFile(*loadPlan, opts...)
	}

	if *cifpFiles == "" {
		return nil, fmt.Errorf("must specify -cifp or -load")
	}
	db, err := av.LoadDatabase(ctx, lg, strings.Split(*cifpFiles, ",")...)
	if err != nil {
		return nil, err
	}
	db.Magnetic = mag

	return buildPlan(db, PlanRequest{
		Origin:              *origin,
		Destination:         *destination,
		Route:               strings.Fields(*route),
		CruiseAltitude:      *cruise,
		DepartureRunway:     *departureRunway,
		Departure:           *sid,
		DepartureTransition: *sidTransition,
		Arrival:             *star,
		ArrivalTransition:   *starTransition,
		Approach:            *approach,
		ApproachTransition:  *approachTrans,
		ArrivalRunway:       *arrivalRunway,
		RunwayExtension:     float32(*runwayExtension),
		DirectTo:            *directTarget,
		Position:            *position,
		Reverse:             *reverse,
	}, opts...)
}

func magneticModel() (av.MagneticModel, error) {
	if *magneticGrid == "" {
		return av.FixedVariation(*variation), nil
	}
	mg, err := av.LoadMagneticGrid(*magneticGrid, av.DefaultMagneticGrid)
	if err != nil {
		return nil, err
	}
	return mg, nil
}

func push(ctx context.Context, fp *flightplan.FlightPlan, lg *log.Logger) error {
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	host, err := hostsync.Dial(dctx, "tcp", *hostAddress, lg)
	cancel()
	if err != nil {
		return err
	}
	defer host.Close()

	syncer := hostsync.NewSyncer(flightplan.NewManager(fp, lg), host, lg)
	if *syncInterval > 0 {
		return syncer.Run(ctx, *syncInterval)
	}
	return syncer.PushNow(ctx)
}

func serve(ctx context.Context, address string, lg *log.Logger) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	fmt.Printf("listening at %s\n", l.Addr())

	recv := hostsync.NewReceiver(func(r hostsync.Route) error {
		fmt.Printf("%s route (active %d): %s\n", time.Now().Format(time.TimeOnly), r.ActiveIndex, r)
		return nil
	}, lg)
	return recv.Serve(ctx, l)
}
