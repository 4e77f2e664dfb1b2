package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clinical-assistant/handler"
	"clinical-assistant/internal/cache"
	"clinical-assistant/internal/config"
	"clinical-assistant/internal/integrations/huggingface"
	"clinical-assistant/internal/integrations/ollama"
	"clinical-assistant/internal/integrations/openai"
	"clinical-assistant/internal/integrations/overpass"
	"clinical-assistant/internal/integrations/paramstore"
	"clinical-assistant/internal/integrations/wikipedia"
	"clinical-assistant/internal/recommend"
	"clinical-assistant/internal/repository"
	"clinical-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := cfg.Logger(os.Stdout)

	// ---- AWS SDK config, only when something needs it ----
	var awsCfg *aws.Config
	if cfg.ParamPrefix != "" || cfg.ReportTable != "" {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load AWS config")
		}
		awsCfg = &loaded
	}

	var params *paramstore.Client
	if cfg.ParamPrefix != "" {
		params, err = paramstore.New(awsssm.NewFromConfig(*awsCfg))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create SSM client")
		}
	}

	// ---- Completion provider ----
	llm := newCompleter(ctx, cfg, params, log)
	log.Info().Str("model", llm.Model()).Bool("configured", llm.Configured()).Msg("completion provider selected")

	// ---- Knowledge sources ----
	store, err := recommend.NewLoader(cfg.RecommendationsFile).Load()
	if err != nil {
		// Enrichment still works from the summary service alone.
		log.Error().Err(err).Str("path", cfg.RecommendationsFile).Msg("failed to load recommendations")
	} else {
		log.Info().Int("entries", store.Len()).Msg("recommendations loaded")
	}

	wikiOpts := []wikipedia.Option{wikipedia.WithBaseURL(cfg.WikipediaURL)}
	if summaryCache := newSummaryCache(ctx, cfg, log); summaryCache != nil {
		wikiOpts = append(wikiOpts, wikipedia.WithCache(summaryCache, cfg.SummaryCacheTTL))
	}
	summaries := wikipedia.New(wikiOpts...)

	// ---- Report persistence (optional) ----
	var reports usecase.ReportStore
	if cfg.ReportTable != "" {
		repo, err := repository.New(awsdynamodb.NewFromConfig(*awsCfg), cfg.ReportTable)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create report repository")
		}
		reports = repo
	}

	// ---- Use cases ----
	extractor := usecase.NewExtractor(llm, store, log)
	builder := usecase.NewContextBuilder(extractor, usecase.NewResolver(summaries, store, log))
	reportService, err := usecase.NewReportService(llm, extractor, builder, reports, cfg.MaxTranscriptLength, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create report service")
	}
	pharmacyService, err := usecase.NewPharmacyService(overpass.New(cfg.OverpassURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pharmacy service")
	}

	// ---- Handler ----
	h, err := handler.NewHandler(reportService, pharmacyService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create handler")
	}

	lambda.Start(h.Handle)
}

func newCompleter(ctx context.Context, cfg config.Config, params *paramstore.Client, log zerolog.Logger) usecase.Completer {
	keyParam := func(name string) []openai.Option {
		if params == nil {
			return nil
		}
		return []openai.Option{openai.WithKeyParameter(params, cfg.ParamPrefix+name)}
	}

	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		opts := append([]openai.Option{
			openai.WithAPIKey(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
			openai.WithBaseURL(cfg.OpenAIBaseURL),
		}, keyParam("openai-api-key")...)
		return openai.NewOpenAI(opts...)
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel)
	case config.ProviderHuggingFace:
		key := cfg.HuggingFaceAPIKey
		if key == "" && params != nil {
			var err error
			if key, err = paramstore.APIKey(ctx, params, cfg.ParamPrefix+"huggingface-api-key"); err != nil {
				log.Warn().Err(err).Msg("hugging face api key not found in SSM")
			}
		}
		return huggingface.New(key, cfg.HuggingFaceModel)
	default:
		opts := append([]openai.Option{
			openai.WithAPIKey(cfg.GroqAPIKey),
			openai.WithModel(cfg.GroqModel),
		}, keyParam("groq-api-key")...)
		return openai.NewGroq(opts...)
	}
}

// newSummaryCache returns nil when Redis is not configured or unreachable;
// the summary service then runs uncached.
func newSummaryCache(ctx context.Context, cfg config.Config, log zerolog.Logger) wikipedia.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	c, err := cache.NewRedis(client, "clinical-assistant:")
	if err != nil {
		log.Warn().Err(err).Msg("summary cache disabled")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("summary cache unreachable, continuing without it")
		return nil
	}
	return c
}
