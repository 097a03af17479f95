package main

import (
	"text2phenotype.com/hmm/api"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/logger"
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/types"
	"text2phenotype.com/hmm/worker"
	"errors"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"time"
)

type Config struct {
	RunConfigPath string `envconfig:"HMM_RUN_CONFIG_PATH" default:""`
	CountsPath    string `envconfig:"HMM_COUNTS_PATH" default:""`
	RestAPIPort   string `envconfig:"HMM_REST_API_PORT" default:"10000"`
}

const modelLoadMaxRetries = 5

const usage = `usage:
  hmm [-config run.yaml] [-out path] <command> <corpus> [counts]
  hmm [-config run.yaml] -worker
  hmm [-config run.yaml] -api

commands: normalize, normalizeCategorized, scoreTrigrams, tagBaseline,
          tagViterbi, tagViterbiCategorized, count
`

func main() {
	logger.SetupLogging()
	fdlLogger := logger.NewLogger("Main")
	fatalErrLogger := fdlLogger.Fatal().Caller()

	configPath := flag.String("config", "", "run configuration file (yaml)")
	outPath := flag.String("out", "", "output file; defaults to the command's output name next to the corpus")
	runWorker := flag.Bool("worker", false, "consume tagging jobs from RabbitMQ")
	runAPI := flag.Bool("api", false, "serve the REST tagging endpoint")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}
	if *configPath == "" {
		*configPath = config.RunConfigPath
	}
	runConfig, err := loadRunConfiguration(*configPath)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to load run configuration")
		os.Exit(1)
	}
	runner := pipeline.NewRunner(runConfig)

	if !*runWorker && !*runAPI {
		job, err := fileJob(flag.Args(), *outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		if err := runner.RunFiles(job); err != nil {
			fdlLogger.Err(err).Str("command", string(job.Command)).Msg("Command failed")
			os.Exit(1)
		}
		return
	}

	if *runAPI {
		store, err := loadCounts(config.CountsPath, fdlLogger)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Could not load counts for REST API")
			os.Exit(1)
		}
		serve := func() error {
			fdlLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{Runner: runner, Store: store}
			http.HandleFunc("/tag", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			fdlLogger.Info().Msgf("REST API on %s", host)
			return http.ListenAndServe(host, nil)
		}
		if !*runWorker {
			fatalErrLogger.Err(serve()).Msg("REST API stopped with error")
			os.Exit(1)
		}
		go func() {
			err := serve()
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	fdlLogger.Info().Msg("Start HMM Worker")
	ppln := pipeline.New(runner)
	for {
		rmqWorker, err := worker.New(ppln, runner.Config().Outputs)
		if err != nil {
			fdlLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			fdlLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

func loadRunConfiguration(path string) (types.RunConfiguration, error) {
	if path == "" {
		return types.DefaultRunConfiguration(), nil
	}
	return types.LoadRunConfiguration(path)
}

// fileJob reads `<command> <corpus> [counts]`.
func fileJob(args []string, out string) (pipeline.FileJob, error) {
	if len(args) < 2 || len(args) > 3 {
		return pipeline.FileJob{}, errors.New("expected <command> <corpus> [counts]")
	}
	cmd, err := pipeline.ParseCommand(args[0])
	if err != nil {
		return pipeline.FileJob{}, err
	}
	job := pipeline.FileJob{Command: cmd, Corpus: args[1], Output: out}
	if len(args) == 3 {
		job.Counts = args[2]
	}
	if cmd.NeedsCounts() && job.Counts == "" {
		return pipeline.FileJob{}, fmt.Errorf("%s needs a counts file", cmd)
	}
	return job, nil
}

// loadCounts retries while the counts file is not there yet, e.g. still being
// synced onto a shared volume.
func loadCounts(path string, fdlLogger zerolog.Logger) (*counts.Store, error) {
	if path == "" {
		return nil, errors.New("HMM_COUNTS_PATH is not set")
	}
	var err error
	for retry := 0; retry < modelLoadMaxRetries; retry++ {
		var store *counts.Store
		store, err = counts.LoadFile(path)
		if err == nil {
			fdlLogger.Info().Int("records", store.Len()).Uint64("fingerprint", store.Fingerprint()).Msg("Counts loaded")
			return store, nil
		}
		var malformed *counts.MalformedCountsError
		if errors.As(err, &malformed) {
			return nil, err
		}
		fdlLogger.Err(err).Msg("Failed to load counts. Retrying in 5 sec")
		time.Sleep(5 * time.Second)
	}
	return nil, fmt.Errorf("could not load counts after %d retries: %w", modelLoadMaxRetries, err)
}
