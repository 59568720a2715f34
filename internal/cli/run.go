package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/basejump-ai/basejump-demo/internal/common/logtrace"
	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/engine"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/internal/demo/metrics"
	"github.com/basejump-ai/basejump-demo/internal/demo/server"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

type runOptions struct {
	prompt       string
	statusAddr   string
	returnVisual bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision a client from the config file and ask its database a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(root.configFile)
			if err != nil {
				return err
			}
			logtrace.InitLogger(cfg.LogLevel)
			if opts.prompt != "" {
				cfg.Demo.Prompt = opts.prompt
			}
			if opts.statusAddr != "" {
				cfg.Server.Addr = opts.statusAddr
			}
			ctx := logtrace.Ctx(cmd.Context())
			summary, err := run(ctx, cfg, opts.returnVisual)
			if err != nil {
				return err
			}
			if root.output == outputText {
				return printSummary(cmd.OutOrStdout(), summary)
			}
			return printValue(cmd.OutOrStdout(), root.output, summary)
		},
	}
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "question to ask, overrides demo.prompt")
	cmd.Flags().StringVar(&opts.statusAddr, "status-addr", "", "serve /metrics, /ready and /version on this address while running")
	cmd.Flags().BoolVar(&opts.returnVisual, "visual", false, "ask the engine for a chart specification")
	return cmd
}

// run wires the production collaborators and executes the pipeline.
func run(ctx context.Context, cfg *config.Config, returnVisual bool) (*Summary, error) {
	if cfg.Engine.Endpoint == "" {
		return nil, errors.New("engine.endpoint is not configured")
	}
	timeout, err := cfg.EngineTimeout()
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewHTTPEngine(cfg.Engine.Endpoint, timeout)
	if err != nil {
		return nil, err
	}
	idx, err := indexer.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	pool, err := db.NewPool(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	m := metrics.New()
	if cfg.Server.Addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := server.New(cfg.Server, m, pool, Version)
		go func() {
			if err := srv.Serve(srvCtx, cfg.Server.Addr); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	svc := service.New(cfg, service.Deps{Indexer: idx, Engine: eng, Metrics: m})
	return runPipeline(ctx, cfg, pool, svc, returnVisual)
}

// Summary is what a run provisioned and what the engine answered.
type Summary struct {
	Stage        string    `json:"stage"`
	ClientID     int64     `json:"client_id"`
	ClientUUID   uuid.UUID `json:"client_uuid"`
	ClientSecret string    `json:"client_secret,omitempty"`
	TeamUUID     uuid.UUID `json:"team_uuid"`
	UserUUID     uuid.UUID `json:"user_uuid"`
	ConnUUID     uuid.UUID `json:"conn_uuid"`
	DBUUID       uuid.UUID `json:"db_uuid"`
	ChatUUID     uuid.UUID `json:"chat_uuid"`
	Prompt       string    `json:"prompt"`
	Answer       string    `json:"answer,omitempty"`
	SQLQuery     string    `json:"sql_query,omitempty"`
	ResultUUID   uuid.UUID `json:"result_uuid,omitempty"`
	ResultURL    string    `json:"result_url,omitempty"`
}

// runPipeline takes a fresh client through every provisioning stage and asks cfg.Demo.Prompt.
func runPipeline(ctx context.Context, cfg *config.Config, pool *db.Pool, svc *service.Service, returnVisual bool) (*Summary, error) {
	if cfg.Demo.Prompt == "" {
		return nil, errors.New("no prompt given, set demo.prompt or pass --prompt")
	}
	var (
		env   service.Env
		creds *service.ClientCredentials
	)
	fail := func(err error) (*Summary, error) {
		log.Ctx(ctx).Error().Err(err).Str("kind", errkind.Classify(err).String()).
			Str("stage", env.Stage().String()).Msg("pipeline failed")
		return nil, err
	}

	err := db.RunSession(ctx, pool, 0, func(ctx context.Context, sess db.Session) error {
		var err error
		env, creds, err = svc.ProvisionClient(ctx, sess, cfg.Demo.ClientName, types.ClientTypeDemo, "basejump demo client")
		return err
	})
	if err != nil {
		return fail(err)
	}

	summary := &Summary{ClientID: env.ClientID, ClientUUID: env.ClientUUID, ClientSecret: creds.ClientSecret, Prompt: cfg.Demo.Prompt}
	err = db.RunSession(ctx, pool, env.ClientID, func(ctx context.Context, sess db.Session) error {
		var err error
		if env, err = svc.ProvisionTeam(ctx, sess, env, cfg.Demo.TeamName, ""); err != nil {
			return err
		}
		if env, err = svc.ProvisionUser(ctx, sess, env, cfg.Demo.Username, cfg.Demo.Email, types.UserRoleAdmin); err != nil {
			return err
		}
		if env, err = svc.LinkMembership(ctx, sess, env); err != nil {
			return err
		}
		if env, err = svc.ProvisionConnection(ctx, sess, env, service.ConnParamsFromConfig(cfg.Target)); err != nil {
			return err
		}
		if env, err = svc.LinkConnection(ctx, sess, env); err != nil {
			return err
		}
		if env, err = svc.ProvisionChat(ctx, sess, env); err != nil {
			return err
		}
		if env, err = svc.Ask(ctx, sess, env, cfg.Demo.Prompt, returnVisual); err != nil {
			return err
		}
		return describeAnswer(ctx, sess, svc, env, summary)
	})
	if err != nil {
		return fail(err)
	}
	summary.Stage = env.Stage().String()
	summary.TeamUUID = env.TeamUUID
	summary.UserUUID = env.UserUUID
	summary.ConnUUID = env.Connection.ConnUUID
	summary.DBUUID = env.Connection.DBUUID
	summary.ChatUUID = env.ChatUUID

	log.Ctx(ctx).Info().Str("answer", summary.Answer).Str("sql_query", summary.SQLQuery).
		Str("result_uuid", summary.ResultUUID.String()).Msg("pipeline complete")
	return summary, nil
}

func describeAnswer(ctx context.Context, sess db.Session, svc *service.Service, env service.Env, summary *Summary) error {
	msg := env.LastMessage
	summary.Answer = msg.Content
	if !msg.ResultUUID.Valid {
		return nil
	}
	var qr engine.QueryResult
	if err := msg.DecodeQueryResult(&qr); err != nil {
		return err
	}
	summary.SQLQuery = qr.SQLQuery
	summary.ResultUUID = msg.ResultUUID.UUID
	if qr.ObjectKey == "" {
		return nil
	}
	url, err := svc.ResultURL(ctx, sess, env.ClientID, summary.ResultUUID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unable to presign result url")
		return nil
	}
	summary.ResultURL = url
	return nil
}

func printSummary(w io.Writer, s *Summary) error {
	rows := [][2]string{
		{"client", s.ClientUUID.String()},
		{"client secret", s.ClientSecret},
		{"team", s.TeamUUID.String()},
		{"user", s.UserUUID.String()},
		{"connection", s.ConnUUID.String()},
		{"chat", s.ChatUUID.String()},
		{"prompt", s.Prompt},
		{"answer", s.Answer},
	}
	if s.SQLQuery != "" {
		rows = append(rows, [2]string{"sql", s.SQLQuery}, [2]string{"result", s.ResultUUID.String()})
	}
	if s.ResultURL != "" {
		rows = append(rows, [2]string{"download", s.ResultURL})
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-14s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}
