// Command horario-cli runs the timetable engine against a JSON workspace file
// without a database, printing results as JSON.
//
//	horario-cli -workspace school.json generate -level grado-1 -group A
//	horario-cli -workspace school.json optimize -level grado-1 -group A
//	horario-cli -workspace school.json conflicts
//	horario-cli -workspace school.json teacher -id T1
//	horario-cli -workspace school.json clean -level grado-1
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/timetable"
)

var errUsage = errors.New("usage: horario-cli -workspace FILE [-dry-run] [-v] generate|optimize|conflicts|teacher|clean [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	path   string
	dryRun bool
	ws     *workspace
	grid   timetable.Grid
	out    io.Writer
	logger *zap.Logger
}

func run(args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("horario-cli", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	path := global.String("workspace", "horario.json", "workspace file")
	dryRun := global.Bool("dry-run", false, "print results without saving the workspace")
	verbose := global.Bool("v", false, "log engine runs to stderr")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer logger.Sync() //nolint:errcheck
	}

	ws, err := loadWorkspace(*path)
	if err != nil {
		return err
	}
	grid, err := ws.grid()
	if err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}
	a := &app{path: *path, dryRun: *dryRun, ws: ws, grid: grid, out: stdout, logger: logger}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "generate":
		return a.generate(cmdArgs)
	case "optimize":
		return a.optimize(cmdArgs)
	case "conflicts":
		return a.conflicts()
	case "teacher":
		return a.teacher(cmdArgs)
	case "clean":
		return a.clean(cmdArgs)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	levelID := fs.String("level", "", "level id")
	group := fs.String("group", "", "group letter A-F")
	shuffle := fs.Bool("shuffle", false, "randomize requirement order")
	seed := fs.Int64("seed", 0, "shuffle seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	lvl, ok := a.ws.Levels[*levelID]
	if !ok {
		return fmt.Errorf("unknown level %q", *levelID)
	}

	result, err := timetable.Generate(timetable.GenerateInput{
		LevelID:      *levelID,
		Group:        *group,
		Grid:         a.grid,
		Hours:        lvl.Hours,
		Distribution: lvl.Distribution,
		Fixed:        lvl.Fixed,
		Restrictions: a.ws.restrictions(),
		Rules:        a.ws.Rules,
		Schedules:    a.ws.scheduleMap(),
		Options:      timetable.Options{Shuffle: *shuffle, Seed: *seed},
	})
	if err != nil {
		return err
	}
	a.logger.Info("generated",
		zap.String("group_key", result.GroupKey),
		zap.Int("seeded", result.Seeded),
		zap.Int("placed", result.Placed),
		zap.Int("unassigned", len(result.Unassigned)),
	)

	a.ws.commit(result.GroupKey, result.Schedules, result.Unassigned)
	if err := a.persist(); err != nil {
		return err
	}
	return a.print(a.groupView(result.GroupKey, result.Schedules, map[string]int{
		"fijados":   result.Seeded,
		"colocados": result.Placed,
	}))
}

func (a *app) optimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	levelID := fs.String("level", "", "level id")
	group := fs.String("group", "", "group letter A-F")
	if err := fs.Parse(args); err != nil {
		return err
	}
	groupKey := timetable.GroupKey(*levelID, *group)

	result, err := timetable.Optimize(timetable.OptimizeInput{
		LevelID:      *levelID,
		Group:        *group,
		Grid:         a.grid,
		Restrictions: a.ws.restrictions(),
		Rules:        a.ws.Rules,
		Schedules:    a.ws.scheduleMap(),
		Unassigned:   a.ws.Unassigned[groupKey],
	})
	if err != nil {
		return err
	}
	a.logger.Info("optimized",
		zap.String("group_key", result.GroupKey),
		zap.Int("direct", result.DirectPlaced),
		zap.Int("swapped", result.Swapped),
		zap.Int("remaining", len(result.Unassigned)),
	)

	a.ws.commit(result.GroupKey, result.Schedules, result.Unassigned)
	if err := a.persist(); err != nil {
		return err
	}
	return a.print(a.groupView(result.GroupKey, result.Schedules, map[string]int{
		"colocadosDirectos": result.DirectPlaced,
		"intercambios":      result.Swapped,
		"pasadas":           result.Passes,
	}))
}

func (a *app) conflicts() error {
	list := timetable.DetectConflicts(a.ws.scheduleMap()).List(a.grid)
	return a.print(map[string]interface{}{"conflictos": list, "total": len(list)})
}

func (a *app) teacher(args []string) error {
	fs := flag.NewFlagSet("teacher", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.String("id", "", "teacher id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("teacher: -id is required")
	}
	return a.print(map[string]interface{}{
		"docenteId": *id,
		"bloques":   timetable.TeacherTimetable(a.ws.scheduleMap(), a.grid, *id),
	})
}

func (a *app) clean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	levelID := fs.String("level", "", "level id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	lvl, ok := a.ws.Levels[*levelID]
	if !ok {
		return fmt.Errorf("unknown level %q", *levelID)
	}
	rows, report := timetable.CleanSubjectHours(lvl.Hours)
	lvl.Hours = rows
	a.ws.Levels[*levelID] = lvl
	if err := a.persist(); err != nil {
		return err
	}
	return a.print(map[string]interface{}{"filas": rows, "reporte": report})
}

func (a *app) groupView(groupKey string, schedules timetable.ScheduleMap, counters map[string]int) map[string]interface{} {
	blocks := append([]timetable.Block(nil), schedules[groupKey]...)
	timetable.SortBlocks(blocks, a.grid)
	view := map[string]interface{}{
		"grupoKey":   groupKey,
		"bloques":    blocks,
		"sinAsignar": a.ws.Unassigned[groupKey],
	}
	for name, value := range counters {
		view[name] = value
	}
	return view
}

func (a *app) persist() error {
	if a.dryRun {
		return nil
	}
	return a.ws.save(a.path)
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
