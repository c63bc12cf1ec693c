package cli

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipu69/gen2sim/internal/des"
)

const (
	evInc des.Code = iota
	evDec
	evCancel
)

// profileState tracks per-node counters and pending move-event ids,
// independent of the Gen2 protocol layer — it exercises only the bare
// event queue and scheduler.
type profileState struct {
	nodes       []int
	numIncs     []int
	numDecs     []int
	nextMoveIDs []int64
	numEvents   int
	rng         *rand.Rand
}

type profileParams struct {
	numNodes   int
	moveRate   float64
	cancelRate float64
	maxTime    float64
	maxEvents  int
	verbose    bool
}

func (s *profileState) exponential(rate float64) float64 {
	return -math.Log(1-s.rng.Float64()) / rate
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the bare event queue and scheduler",
	Long: `Profile drives the scheduler with synthetic increment/decrement/
cancel traffic across a fixed number of nodes, independent of the Gen2
protocol layer, to characterize event-queue throughput. Move events for
node i are scheduled at exponential(move-rate) intervals; a cancel event,
scheduled at exponential(cancel-rate) intervals, cancels a random subset
of each node's next pending move.`,
	RunE: runProfile,
}

var (
	profileMaxTime    float64
	profileNumNodes   int
	profileMoveRate   float64
	profileCancelRate float64
	profileMaxEvents  int
	profileVerbose    bool
)

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().Float64Var(&profileMaxTime, "max-time", 1e3, "maximum simulated time")
	profileCmd.Flags().IntVar(&profileNumNodes, "num-nodes", 5, "number of independent nodes")
	profileCmd.Flags().Float64Var(&profileMoveRate, "move-rate", 100.0, "per-node move event rate")
	profileCmd.Flags().Float64Var(&profileCancelRate, "cancel-rate", 1.0, "cancel event rate")
	profileCmd.Flags().IntVar(&profileMaxEvents, "max-events", -1, "maximum number of scheduled events (-1 = unlimited)")
	profileCmd.Flags().BoolVar(&profileVerbose, "verbose", false, "print every event as it fires")
}

func runProfile(_ *cobra.Command, _ []string) error {
	params := profileParams{
		numNodes:   profileNumNodes,
		moveRate:   profileMoveRate,
		cancelRate: profileCancelRate,
		maxTime:    profileMaxTime,
		maxEvents:  profileMaxEvents,
		verbose:    profileVerbose,
	}
	state := &profileState{
		nodes:       make([]int, params.numNodes),
		numIncs:     make([]int, params.numNodes),
		numDecs:     make([]int, params.numNodes),
		nextMoveIDs: make([]int64, params.numNodes),
		rng:         rand.New(rand.NewSource(1)),
	}

	sched := des.NewScheduler()
	sched.SetupContext(state, params)
	sched.BindInit(func(ctx *des.Context) { profileInit(ctx) })
	sched.Bind(evInc, profileHandleMove(true), des.SpecIndex)
	sched.Bind(evDec, profileHandleMove(false), des.SpecIndex)
	sched.Bind(evCancel, profileHandleCancel, des.SpecAttachment)

	start := time.Now()
	sched.Run()
	elapsed := time.Since(start)

	fmt.Printf("nodes:      %v\n", state.nodes)
	fmt.Printf("num_incs:   %v\n", state.numIncs)
	fmt.Printf("num_decs:   %v\n", state.numDecs)
	fmt.Printf("num_events: %d\n", state.numEvents)
	fmt.Printf("sim_time:   %.6f\n", sched.Time())
	fmt.Printf("wall_time:  %s\n", elapsed)
	return nil
}

func profileInit(ctx *des.Context) {
	params := ctx.Params.(profileParams)
	for i := 0; i < params.numNodes; i++ {
		scheduleNextMove(ctx, i)
	}
	scheduleNextCancel(ctx)
}

func scheduleNextMove(ctx *des.Context, index int) {
	state := ctx.State.(*profileState)
	params := ctx.Params.(profileParams)
	now := ctx.Sched.Time()
	if now < params.maxTime && (params.maxEvents < 0 || state.numEvents < params.maxEvents) {
		interval := state.exponential(params.moveRate)
		code := evDec
		if state.rng.Float64() < 0.5 {
			code = evInc
		}
		id := ctx.Sched.Schedule(now+interval, code, index, nil)
		state.nextMoveIDs[index] = id
		state.numEvents++
	} else {
		state.nextMoveIDs[index] = -1
	}
}

func scheduleNextCancel(ctx *des.Context) {
	state := ctx.State.(*profileState)
	params := ctx.Params.(profileParams)
	now := ctx.Sched.Time()
	if now < params.maxTime && (params.maxEvents < 0 || state.numEvents < params.maxEvents) {
		interval := state.exponential(params.cancelRate)
		var targets []int
		for i := 0; i < params.numNodes; i++ {
			if state.rng.Float64() < 0.5 {
				targets = append(targets, i)
			}
		}
		state.numEvents++
		ctx.Sched.Schedule(now+interval, evCancel, -1, targets)
	}
}

func profileHandleMove(isInc bool) des.IndexHandler {
	return func(ctx *des.Context, index int) {
		state := ctx.State.(*profileState)
		params := ctx.Params.(profileParams)
		if isInc {
			state.nodes[index]++
			state.numIncs[index]++
		} else {
			state.nodes[index]--
			state.numDecs[index]++
		}
		if params.verbose {
			fmt.Printf("%.6f: node[%d]=%d\n", ctx.Sched.Time(), index, state.nodes[index])
		}
		scheduleNextMove(ctx, index)
	}
}

func profileHandleCancel(ctx *des.Context, att any) {
	state := ctx.State.(*profileState)
	targets, _ := att.([]int)
	for _, i := range targets {
		if id := state.nextMoveIDs[i]; id >= 0 {
			ctx.Sched.Cancel(id)
		}
	}
	scheduleNextCancel(ctx)
}
