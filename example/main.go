// FILE: lixenwraith/getopt/example/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/lixenwraith/getopt"
	"github.com/lixenwraith/getopt/conffile"
)

// AppConfig is filled from the parsed options with Scan
type AppConfig struct {
	Server struct {
		Host     string `getopt:"host"`
		Port     int64  `getopt:"port"`
		LogLevel string `getopt:"log_level"`
	} `getopt:"server"`
	Features []string `getopt:"features"`
}

const configFilePath = "example.conf"

var definitions = []getopt.OptionDefinition{
	{
		Name:  "server::host",
		Flags: getopt.FlagSourceAll | getopt.FlagRequired,
		Help:  "address the server listens on",
	},
	{
		Name:      "server::port",
		Flags:     getopt.FlagSourceAll | getopt.FlagRequired,
		Default:   "8080",
		Validator: "integer(1...65535)",
		Help:      "port the server listens on",
	},
	{
		Name:      "server::log-level",
		Flags:     getopt.FlagSourceAll | getopt.FlagRequired | getopt.FlagDynamicConfiguration,
		Default:   "info",
		Validator: "keywords(debug, info, warning, error)",
		Help:      "verbosity of the server log",
	},
	{
		Name:       "features",
		Flags:      getopt.FlagSourceAll | getopt.FlagRequired | getopt.FlagMultiple | getopt.FlagDynamicConfiguration,
		Separators: []string{","},
		Help:       "features to enable",
	},
}

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Write a configuration file for the program to read.
	// =========================================================================
	log.Println("---")
	log.Println("PART 1: Creating initial configuration file...")

	defer func() {
		log.Println("---")
		log.Println("Cleaning up...")
		os.Remove(configFilePath)
		os.Unsetenv("APP_SERVER__PORT")
		log.Printf("Removed %s and unset APP_SERVER__PORT.", configFilePath)
	}()

	if err := createInitialConfigFile(); err != nil {
		log.Fatalf("Failed during initial file creation: %v", err)
	}
	log.Printf("Initial configuration saved to %s.", configFilePath)

	// =========================================================================
	// PART 2: CONFIGURATION USING THE BUILDER
	// Source precedence, validation and scanning into a struct.
	// =========================================================================
	log.Println("---")
	log.Println("PART 2: Parsing options with the Builder...")

	// The per-option variable overrides the configuration file
	os.Setenv("APP_SERVER__PORT", "8888")
	log.Println("   (Set environment variable APP_SERVER__PORT=8888)")

	validator := func(g *getopt.Getopt) error {
		port, err := g.Long("server::port")
		if err != nil {
			return err
		}
		if port < 1024 {
			return fmt.Errorf("port %d is outside the recommended range (1024-65535)", port)
		}
		return nil
	}

	g, err := getopt.NewBuilder().
		WithEnvironment(getopt.Environment{
			ProjectName:              "app",
			EnvironmentVariableIntro: "APP_",
			ConfigurationFiles:       []string{configFilePath},
			EnvironmentFlags:         getopt.EnvironmentFlagSystemParameters | getopt.EnvironmentFlagProcessSystemParameters,
			Version:                  "1.0.0",
		}).
		WithOptions(definitions...).
		WithValidator(validator).
		Build()
	if err != nil {
		var exit *getopt.ExitError
		if errors.As(err, &exit) && exit.Code == 0 {
			return
		}
		log.Fatalf("Builder failed: %v", err)
	}

	log.Println("Builder finished successfully. Initial values loaded.")
	printCurrentState(g, "Initial State (Env overrides File)")

	// =========================================================================
	// PART 3: DYNAMIC RELOADING WITH THE WATCHER
	// Another program edits the file; dynamic options follow.
	// =========================================================================
	log.Println("---")
	log.Println("PART 3: Testing the file watcher...")

	w, err := g.Watch(conffile.WatchOptions{Debounce: 100 * time.Millisecond})
	if err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()
	changes := w.Changes()
	log.Println("Watcher is now active.")

	var wg sync.WaitGroup
	wg.Add(1)
	go modifyFileOnDisk(&wg)
	log.Println("   (Modifier goroutine dispatched to change file in 1 second...)")

	select {
	case path := <-changes:
		log.Printf("Watcher detected a change of '%s'", path)

		level, _ := g.String("server::log-level")
		if level != "debug" {
			log.Fatalf("VERIFICATION FAILED: expected log level 'debug', got '%s'.", level)
		}
		log.Println("VERIFICATION SUCCESSFUL: the options were updated by the watcher.")
		printCurrentState(g, "Final State (Updated by Watcher)")
		fmt.Println(g.OptionsToString(true, false))

	case <-time.After(5 * time.Second):
		log.Fatalf("TEST FAILED: Timed out waiting for watcher notification.")
	}

	wg.Wait()
}

// createInitialConfigFile parses a fixed command line and saves the result
func createInitialConfigFile() error {
	g, err := getopt.New(getopt.Environment{ProjectName: "app", Options: definitions})
	if err != nil {
		return err
	}
	if err := g.Parse([]string{"app", "--server::host", "localhost", "--features", "metrics"}); err != nil {
		return err
	}
	return g.SaveConfiguration(configFilePath, true, conffile.DefaultSaveOptions())
}

// modifyFileOnDisk simulates another program editing the configuration
func modifyFileOnDisk(wg *sync.WaitGroup) {
	defer wg.Done()
	time.Sleep(1 * time.Second)
	log.Println("   (Modifier goroutine: now changing file on disk...)")

	f, err := conffile.NewCache().Get(conffile.Setup{Filename: configFilePath})
	if err != nil {
		log.Fatalf("Modifier failed to load file: %v", err)
	}
	f.SetParameter("server", "log-level", "debug", conffile.OperatorSet, "")
	f.SetParameter("", "features", "metrics,tracing", conffile.OperatorSet, "")

	if err := f.Save(conffile.SaveOptions{ReplaceBackup: true}); err != nil {
		log.Fatalf("Modifier failed to save file: %v", err)
	}
	log.Println("   (Modifier goroutine: finished.)")
}

// printCurrentState scans the options and displays them
func printCurrentState(g *getopt.Getopt, title string) {
	var cfg AppConfig
	if err := g.Scan("", &cfg); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("             %s\n", title)
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Server Host:      %s\n", cfg.Server.Host)
	fmt.Printf("     Server Port:      %d\n", cfg.Server.Port)
	fmt.Printf("     Server Log Level: %s\n", cfg.Server.LogLevel)
	fmt.Printf("     Features:         %v\n", cfg.Features)
	fmt.Println("   --------------------------------------------------")
}
