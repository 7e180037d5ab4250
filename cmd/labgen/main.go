package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	labgen "github.com/sciro24/Kathara-labGenerator"
	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/compiler"
	"github.com/sciro24/Kathara-labGenerator/labfs"
	"github.com/sciro24/Kathara-labGenerator/review"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/topology"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Reads the compile settings from the command flags.
func getSettings(settings *cli.Context) compiler.Settings {
	return compiler.Settings{
		Addressing: addressing.Options{
			Base:         settings.String("base"),
			LANPrefixLen: settings.Int("lan-prefix"),
			P2PPrefixLen: settings.Int("p2p-prefix"),
			LoopbackPool: settings.String("loopback-pool"),
		},
		Services: servicecfg.Options{
			Serial: uint32(settings.Uint("zone-serial")),
		},
	}
}

// Creates the review dispatcher with the default checkers. The checkers
// named in the disable-checker flag are disabled.
func newDispatcher(settings *cli.Context) (review.Dispatcher, error) {
	dispatcher := review.NewDefaultDispatcher()
	for _, name := range settings.StringSlice("disable-checker") {
		if err := dispatcher.SetCheckerState(name, review.CheckerStateDisabled); err != nil {
			return nil, err
		}
	}
	return dispatcher, nil
}

// Creates the compiler configured by the command flags.
func newCompiler(settings *cli.Context, registerer prometheus.Registerer) (*compiler.Compiler, error) {
	dispatcher, err := newDispatcher(settings)
	if err != nil {
		return nil, err
	}
	return compiler.New(
		getSettings(settings),
		compiler.WithRegisterer(registerer),
		compiler.WithDispatcher(dispatcher),
	), nil
}

// Compiles the topology and stores the lab files using the writer. The
// review issues are printed when they block the rendering. A nil writer
// only lists the files that would be written.
func compileLab(comp *compiler.Compiler, model *topology.Model, writer labfs.Writer) (*compiler.Result, error) {
	result, err := comp.Compile(model)
	if err != nil {
		if errors.Is(err, compiler.ErrReviewFailed) {
			printIssues(os.Stdout, result.Review.Issues)
			return nil, errors.Errorf("the topology has %d issue(s); no files were written", len(result.Review.Issues))
		}
		return nil, err
	}
	if writer == nil {
		printArtifacts(os.Stdout, result.Artifacts)
		return result, nil
	}
	if err = writer.Write(result.Artifacts); err != nil {
		return nil, errors.WithMessage(err, "cannot write the lab files")
	}
	return result, nil
}

// Execute compile command.
func runCompile(settings *cli.Context) error {
	model, err := topology.Load(settings.Path("input"))
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	comp, err := newCompiler(settings, registry)
	if err != nil {
		return err
	}

	destination := settings.Path("output")
	var writer labfs.Writer
	switch {
	case settings.Bool("dry-run"):
	case settings.Path("archive") != "":
		destination = settings.Path("archive")
		writer = labfs.NewArchiveWriter(destination)
	default:
		writer = labfs.NewDirWriter(destination, settings.Bool("clean"))
	}
	result, err := compileLab(comp, model, writer)

	if metricsFile := settings.Path("metrics-file"); metricsFile != "" {
		if metricsErr := compiler.WriteMetricsFile(registry, metricsFile); metricsErr != nil {
			log.WithError(metricsErr).Error("Cannot write the metrics file")
		}
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"destination": destination,
		"files":       len(result.Artifacts),
		"digest":      result.Digest,
		"dry-run":     settings.Bool("dry-run"),
	}).Info("Lab generated")
	return nil
}

// Checks if the path names a lab archive instead of a lab directory.
func isArchivePath(path string) bool {
	return strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz")
}

// Execute check command.
func runCheck(settings *cli.Context) error {
	model, err := topology.Load(settings.Path("input"))
	if err != nil {
		return err
	}
	comp, err := newCompiler(settings, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	result, err := comp.Compile(model)
	if err != nil {
		if errors.Is(err, compiler.ErrReviewFailed) {
			printIssues(os.Stdout, result.Review.Issues)
		}
		return err
	}

	directory := settings.Path("directory")
	var differences []labfs.Difference
	if isArchivePath(directory) {
		differences, err = labfs.CompareArchive(directory, result.Artifacts)
	} else {
		differences, err = labfs.Compare(directory, result.Artifacts)
	}
	if err != nil {
		return err
	}
	if len(differences) > 0 {
		printDifferences(os.Stdout, differences)
		return errors.Errorf("lab directory %s differs from the topology in %d file(s)", directory, len(differences))
	}
	log.WithField("directory", directory).Info("Lab directory is up to date")
	return nil
}

// Execute plan command.
func runPlan(settings *cli.Context) error {
	model, err := topology.Load(settings.Path("input"))
	if err != nil {
		return err
	}
	plan, err := addressing.Allocate(model, getSettings(settings).Addressing)
	if err != nil {
		return err
	}
	printPlan(os.Stdout, model, plan)
	for _, planErr := range plan.Errors {
		log.WithError(planErr).Warn("Address allocation problem")
	}
	return nil
}

// Execute validate command.
func runValidate(settings *cli.Context) error {
	model, err := topology.Load(settings.Path("input"))
	if err != nil {
		return err
	}
	comp, err := newCompiler(settings, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	result, err := comp.Compile(model)
	switch {
	case errors.Is(err, compiler.ErrReviewFailed):
		printIssues(os.Stdout, result.Review.Issues)
		return errors.Errorf("found %d issue(s)", len(result.Review.Issues))
	case err != nil:
		return err
	}
	fmt.Println("No issues found")
	return nil
}

// Execute convert command.
func runConvert(settings *cli.Context) error {
	model, err := topology.Load(settings.Path("input"))
	if err != nil {
		return err
	}
	if err = topology.Save(model, settings.Path("output")); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"input":  settings.Path("input"),
		"output": settings.Path("output"),
	}).Info("Topology converted")
	return nil
}

// Execute import command.
func runImport(settings *cli.Context) error {
	inputPath := settings.Path("input")
	file, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrapf(err, "cannot open the lab.conf file '%s'", inputPath)
	}
	defer file.Close()

	model, err := topology.ParseLabConf(file)
	if err != nil {
		return err
	}
	if err = topology.Save(model, settings.Path("output")); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"devices": len(model.Devices()),
		"links":   len(model.Links()),
		"output":  settings.Path("output"),
	}).Info("Lab imported")
	return nil
}

// Returns the flag of the input topology file.
func inputFlag(usage string) cli.Flag {
	return &cli.PathFlag{
		Name:     "input",
		Usage:    usage,
		Required: true,
		Aliases:  []string{"i"},
		EnvVars:  []string{"LABGEN_TOPOLOGY"},
	}
}

// Returns the flags of the address allocation and the zone generation.
func allocationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "base",
			Usage:   "The address block the link subnets are carved from",
			Value:   addressing.DefaultBase,
			EnvVars: []string{"LABGEN_BASE"},
		},
		&cli.IntFlag{
			Name:    "lan-prefix",
			Usage:   "The prefix length of the LAN subnets",
			Value:   addressing.DefaultLANPrefixLen,
			EnvVars: []string{"LABGEN_LAN_PREFIX"},
		},
		&cli.IntFlag{
			Name:    "p2p-prefix",
			Usage:   "The prefix length of the point-to-point subnets",
			Value:   addressing.DefaultP2PPrefixLen,
			EnvVars: []string{"LABGEN_P2P_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "loopback-pool",
			Usage:   "The address block the router loopbacks are taken from",
			Value:   addressing.DefaultLoopbackPool,
			EnvVars: []string{"LABGEN_LOOPBACK_POOL"},
		},
	}
}

// Returns the flags of the commands compiling the topology.
func compileFlags() []cli.Flag {
	return append(allocationFlags(),
		&cli.UintFlag{
			Name:    "zone-serial",
			Usage:   "The serial number of the generated DNS zones",
			Value:   uint(servicecfg.DefaultSerial),
			EnvVars: []string{"LABGEN_ZONE_SERIAL"},
		},
		&cli.StringSliceFlag{
			Name:    "disable-checker",
			Usage:   "The name of the consistency checker to skip; it can be repeated",
			EnvVars: []string{"LABGEN_DISABLE_CHECKER"},
		},
	)
}

// Prepare urfave cli app with all flags and commands defined.
func setupApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(c.App.Version)
	}

	cli.HelpFlag = &cli.BoolFlag{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   "Show help",
	}

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version",
	}

	compileCommandFlags := append([]cli.Flag{
		inputFlag("The topology file (YAML, JSON or XML)"),
		&cli.PathFlag{
			Name:    "output",
			Usage:   "The lab directory",
			Value:   "lab",
			Aliases: []string{"o"},
			EnvVars: []string{"LABGEN_LAB_DIR"},
		},
		&cli.BoolFlag{
			Name:    "clean",
			Usage:   "Remove the lab directory before writing the files",
			EnvVars: []string{"LABGEN_CLEAN"},
		},
		&cli.PathFlag{
			Name:    "archive",
			Usage:   "Write the lab files into this gzip-compressed TAR archive instead of the lab directory",
			Aliases: []string{"a"},
			EnvVars: []string{"LABGEN_ARCHIVE"},
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Usage:   "List the lab files without writing them",
			EnvVars: []string{"LABGEN_DRY_RUN"},
		},
		&cli.PathFlag{
			Name:    "metrics-file",
			Usage:   "The file the compile metrics are written to in the Prometheus text format",
			EnvVars: []string{"LABGEN_METRICS_FILE"},
		},
	}, compileFlags()...)

	checkCommandFlags := append([]cli.Flag{
		inputFlag("The topology file (YAML, JSON or XML)"),
		&cli.PathFlag{
			Name:     "directory",
			Usage:    "The lab directory or the lab archive (.tar.gz) to compare with the topology",
			Required: true,
			Aliases:  []string{"d"},
			EnvVars:  []string{"LABGEN_LAB_DIR"},
		},
	}, compileFlags()...)

	planCommandFlags := append([]cli.Flag{
		inputFlag("The topology file (YAML, JSON or XML)"),
	}, allocationFlags()...)

	validateCommandFlags := append([]cli.Flag{
		inputFlag("The topology file (YAML, JSON or XML)"),
	}, compileFlags()...)

	app := &cli.App{
		Name:  "Kathara Lab Generator",
		Usage: "A tool for generating Kathara labs from the network topologies.",
		Description: `The tool compiles a topology of routers, hosts, web servers and DNS servers
   into a Kathara lab: the lab.conf file, the startup scripts, the FRR routing
   configuration, the BIND zones and the web content. The addresses are
   allocated automatically and the derived configuration is reviewed before
   any file is written.`,
		Version:  labgen.Version,
		HelpName: "labgen",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "env-file",
				Usage:   "Environment file with the LABGEN_* variables loaded before the command flags are read",
				EnvVars: []string{"LABGEN_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "",
				Usage:   "Logging level can be specified using env variable only. Allowed values: are DEBUG, INFO, WARN, ERROR",
				Value:   "INFO",
				EnvVars: []string{labutil.LogLevelEnvVar},
			},
		},
		Before: func(c *cli.Context) error {
			if !c.IsSet("env-file") {
				return nil
			}
			err := labutil.LoadEnvironmentFileToSetter(
				c.Path("env-file"),
				labutil.NewProcessEnvironmentVariableSetter(),
			)
			if err != nil {
				return errors.WithMessagef(err, "the '%s' environment file is invalid", c.Path("env-file"))
			}
			// Reconfigures logging using new environment variables.
			labutil.SetupLogging()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "compile",
				Usage:     "Generate the lab files from the topology",
				UsageText: "labgen compile -i topology [-o directory | -a archive] [--clean] [--dry-run]",
				Flags:     compileCommandFlags,
				Category:  "Lab Generation",
				Action:    runCompile,
			},
			{
				Name:      "check",
				Usage:     "Compare the lab directory with the files generated from the topology",
				UsageText: "labgen check -i topology -d directory",
				Flags:     checkCommandFlags,
				Category:  "Lab Generation",
				Action:    runCheck,
			},
			{
				Name:      "plan",
				Usage:     "Print the address plan of the topology",
				UsageText: "labgen plan -i topology",
				Flags:     planCommandFlags,
				Category:  "Topology Inspection",
				Action:    runPlan,
			},
			{
				Name:      "validate",
				Usage:     "Review the topology and print the issues found",
				UsageText: "labgen validate -i topology [--disable-checker name]",
				Flags:     validateCommandFlags,
				Category:  "Topology Inspection",
				Action:    runValidate,
			},
			{
				Name:      "convert",
				Usage:     "Convert the topology file to another format selected by the extension",
				UsageText: "labgen convert -i topology -o topology",
				Flags: []cli.Flag{
					inputFlag("The source topology file (YAML, JSON or XML)"),
					&cli.PathFlag{
						Name:     "output",
						Usage:    "The destination topology file (YAML, JSON or XML)",
						Required: true,
						Aliases:  []string{"o"},
					},
				},
				Category: "Topology Files",
				Action:   runConvert,
			},
			{
				Name:      "import",
				Usage:     "Create the topology file from the Kathara lab.conf file",
				UsageText: "labgen import -i lab.conf -o topology",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     "input",
						Usage:    "The lab.conf file",
						Required: true,
						Aliases:  []string{"i"},
					},
					&cli.PathFlag{
						Name:     "output",
						Usage:    "The destination topology file (YAML, JSON or XML)",
						Required: true,
						Aliases:  []string{"o"},
					},
				},
				Category: "Topology Files",
				Action:   runImport,
			},
		},
	}

	return app
}

func main() {
	// Setup logging
	labutil.SetupLogging()

	app := setupApp()
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
