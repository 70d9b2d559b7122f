package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardity-org/cardity-wasm/internal/config"
	"github.com/cardity-org/cardity-wasm/internal/obslog"
	"github.com/cardity-org/cardity-wasm/pkg/runtime"
	"github.com/cardity-org/cardity-wasm/pkg/state"
	"github.com/cardity-org/cardity-wasm/pkg/state/leveldbstore"
	"github.com/cardity-org/cardity-wasm/pkg/state/lrucache"
	"github.com/cardity-org/cardity-wasm/pkg/state/memstore"
	"github.com/cardity-org/cardity-wasm/pkg/state/sqlitestore"
)

var runStateFile string

var runCmd = &cobra.Command{
	Use:   "run <car_file> <command> [args...]",
	Short: "Load a protocol and execute one command against it",
	Long: `Load a protocol document and execute one command against it.

Commands:
  call <method> [args...]   invoke a method with positional arguments
  get <key>                 read one state key
  set <key> <value>         write one state key
  events                    print the event log
  state                     print all state
  abi                       print the derived ABI
  snapshot                  print a snapshot of state and events

When --state is given, state is loaded from the file before the command
and saved back after commands that mutate it.

Example:
  cardity run counter.car call increment
  cardity run counter.car --state counter.state call get_count`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStateFile, "state", "", "state file to load before and save after the command")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := createLogger(cfg.Logging)

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := loadProtocol(orch, args[0]); err != nil {
		return err
	}

	if runStateFile != "" {
		if _, statErr := os.Stat(runStateFile); statErr == nil {
			if err := orch.LoadStateFromFile(runStateFile); err != nil {
				return err
			}
		}
	}

	command, rest := args[1], args[2:]
	mutated, err := dispatch(cmd.Context(), orch, command, rest)
	if err != nil {
		return err
	}

	if mutated && runStateFile != "" {
		if err := orch.SaveStateToFile(runStateFile); err != nil {
			return err
		}
	}
	return nil
}

// loadProtocol picks the loader by file extension: .toml files use the
// TOML-wrapped form, everything else is treated as JSON.
func loadProtocol(orch *runtime.Orchestrator, path string) error {
	if strings.HasSuffix(path, ".toml") {
		return orch.LoadProtocolTOMLFile(path)
	}
	return orch.LoadProtocolFile(path)
}

// buildOrchestrator assembles the backend and runtime options the
// config describes, plus any extra options (metrics, tracing).
func buildOrchestrator(cfg *config.Config, logger *obslog.Logger, extra ...runtime.Option) (*runtime.Orchestrator, error) {
	var backend state.Backend
	switch cfg.Runtime.Backend {
	case "sqlite":
		b, err := sqlitestore.New(cfg.Runtime.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite backend: %w", err)
		}
		backend = b
	case "leveldb":
		b, err := leveldbstore.New(cfg.Runtime.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("opening leveldb backend: %w", err)
		}
		backend = b
	default:
		backend = memstore.New()
	}

	if cfg.Runtime.CacheSize > 0 {
		cached, err := lrucache.New(backend, cfg.Runtime.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("wrapping backend in lru cache: %w", err)
		}
		backend = cached
	}

	rcfg := runtime.DefaultConfig()
	rcfg.EnableEvents = cfg.Runtime.EnableEvents
	rcfg.EnableSnapshots = cfg.Runtime.EnableSnapshots
	rcfg.EnablePersistence = cfg.Runtime.EnablePersistence
	rcfg.SnapshotInterval = cfg.Runtime.SnapshotInterval.Duration()
	rcfg.StoragePath = cfg.Runtime.StoragePath
	rcfg.Transactional = cfg.Runtime.Transactional

	opts := []runtime.Option{
		runtime.WithBackend(backend),
		runtime.WithConfig(rcfg),
		runtime.WithLogger(logger.Logger),
	}
	opts = append(opts, extra...)
	return runtime.New(opts...), nil
}

// dispatch executes one CLI command and reports whether it may have
// mutated state.
func dispatch(ctx context.Context, orch *runtime.Orchestrator, command string, args []string) (bool, error) {
	switch command {
	case "call":
		if len(args) < 1 {
			return false, fmt.Errorf("call requires a method name")
		}
		res := orch.CallMethod(ctx, args[0], args[1:])
		if !res.Success {
			return true, fmt.Errorf("%s", res.Error)
		}
		if res.ReturnValue != "" {
			fmt.Println(res.ReturnValue)
		}
		for _, e := range res.Events {
			fmt.Printf("event %s(%s)\n", e.Name, strings.Join(e.Values, ", "))
		}
		return true, nil

	case "get":
		if len(args) != 1 {
			return false, fmt.Errorf("get requires exactly one key")
		}
		fmt.Println(orch.GetState(args[0]))
		return false, nil

	case "set":
		if len(args) != 2 {
			return false, fmt.Errorf("set requires a key and a value")
		}
		if err := orch.SetState(args[0], args[1]); err != nil {
			return false, err
		}
		return true, nil

	case "events":
		return false, printJSON(orch.Events())

	case "state":
		all, err := orch.GetAllState()
		if err != nil {
			return false, err
		}
		return false, printJSON(all)

	case "abi":
		doc := orch.Document()
		data, err := doc.ABI().MarshalIndentJSON()
		if err != nil {
			return false, err
		}
		fmt.Println(string(data))
		return false, nil

	case "snapshot":
		snap, err := orch.CreateSnapshot("")
		if err != nil {
			return false, err
		}
		data, err := snap.Encode()
		if err != nil {
			return false, err
		}
		fmt.Println(string(data))
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", command)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
