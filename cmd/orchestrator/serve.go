package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
	"github.com/meridian/orchestrator/pkg/config"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/gitops"
	"github.com/meridian/orchestrator/pkg/log"
	"github.com/meridian/orchestrator/pkg/metrics"
	"github.com/meridian/orchestrator/pkg/reconciler"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/template"
)

// drainDeadline bounds how long a long-running process waits for its
// in-flight event to finish acknowledging before exiting on signal.
const drainDeadline = 30 * time.Second

// sqlitePath strips the sqlite:// scheme config.Config.DatabaseURL
// carries so it can be handed to storage.OpenSQLite, which wants a
// bare filesystem path.
func sqlitePath(databaseURL string) string {
	return strings.TrimPrefix(databaseURL, "sqlite://")
}

// openPersistence opens the shared SQLite-backed store and event
// stream every long-running process builds its service graph on top
// of. Storage and the stream share one *sql.DB so a mutation and its
// event append commit in the same transaction.
func openPersistence(cfg config.Config) (*storage.SQLStore, *eventstream.SQLStream, error) {
	store, err := storage.OpenSQLite(sqlitePath(cfg.DatabaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	stream := eventstream.NewSQLStream(store.DB())
	return store, stream, nil
}

// ensureClone makes sure repoPath holds a working clone of repoURL,
// cloning it on first run. gitops.Open only ever opens an existing
// working tree (git.PlainOpen); cloning it into place is this
// process's job, the same division the teacher draws between
// embedded.EnsureContainerd (provision once) and the long-running
// loop that follows.
func ensureClone(repoPath, repoURL, sshKeyPath, githubToken string) error {
	if _, err := git.PlainOpen(repoPath); err == nil {
		return nil
	}
	if repoURL == "" {
		return fmt.Errorf("no working tree at %s and GITOPS_REPO_URL is not set", repoPath)
	}

	opts := &git.CloneOptions{URL: repoURL}
	switch {
	case sshKeyPath != "":
		auth, err := gitssh.NewPublicKeysFromFile("git", sshKeyPath, "")
		if err != nil {
			return fmt.Errorf("load gitops ssh key: %w", err)
		}
		opts.Auth = auth
	case githubToken != "":
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: githubToken}
	}

	if _, err := git.PlainClone(repoPath, false, opts); err != nil {
		return fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return nil
}

// startMetricsServer starts the shared /metrics, /health, /ready and
// /live endpoints every process exposes, in the manner of the
// teacher's metrics HTTP server.
func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()
}

func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the gRPC model-service api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		logger := log.WithComponent("api")

		store, stream, err := openPersistence(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		deployments := services.NewDeploymentService(store, stream)
		assignments := services.NewAssignmentService(store, stream)
		deps := api.Deps{
			Teams:       services.NewTeamService(store, stream),
			Templates:   services.NewTemplateService(store, stream),
			Workloads:   services.NewWorkloadService(store, stream, deployments),
			Targets:     services.NewTargetService(store, stream),
			Hosts:       services.NewHostService(store, stream, assignments),
			Deployments: deployments,
			Assignments: assignments,
			Configs:     services.NewConfigService(store, stream),
		}

		certPath, _ := cmd.Flags().GetString("tls-cert")
		keyPath, _ := cmd.Flags().GetString("tls-key")
		clientCAPath, _ := cmd.Flags().GetString("tls-client-ca")
		listenAddr, _ := cmd.Flags().GetString("listen")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		srv, err := api.NewServer(deps, api.TLSFiles{CertPath: certPath, KeyPath: keyPath, ClientCAPath: clientCAPath})
		if err != nil {
			return fmt.Errorf("create api server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(listenAddr); err != nil {
				errCh <- err
			}
		}()

		collector := metrics.NewCollector(store)
		collector.Start()
		defer collector.Stop()
		metrics.RegisterComponent("api", true, "serving")

		startMetricsServer(metricsAddr)
		logger.Info().Str("listen", listenAddr).Str("metrics", metricsAddr).Msg("api process running")

		select {
		case <-waitForInterrupt():
			logger.Info().Msg("shutting down")
		case err := <-errCh:
			logger.Error().Err(err).Msg("api server error")
		}

		srv.Stop()
		return nil
	},
}

var reconcilerCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Run the assignment reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		logger := log.WithComponent("reconciler")

		store, stream, err := openPersistence(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		deployments := services.NewDeploymentService(store, stream)
		assignments := services.NewAssignmentService(store, stream)
		recon := reconciler.New(store, stream, deployments, assignments)

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		collector := metrics.NewCollector(store)
		collector.Start()
		defer collector.Stop()
		metrics.RegisterComponent("reconciler", true, "running")
		startMetricsServer(metricsAddr)

		recon.Start()
		logger.Info().Str("metrics", metricsAddr).Msg("reconciler process running")

		<-waitForInterrupt()
		logger.Info().Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), drainDeadline)
		defer cancel()
		return recon.Stop(ctx)
	},
}

var gitopsCmd = &cobra.Command{
	Use:   "gitops",
	Short: "Run the template renderer and GitOps writer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		logger := log.WithComponent("gitops")

		store, stream, err := openPersistence(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		organization, _ := cmd.Flags().GetString("organization")
		repoPath, _ := cmd.Flags().GetString("repo-path")
		if repoPath == "" {
			repoPath = cfg.StateDir + "/gitops"
		}
		templateCacheDir := cfg.StateDir + "/templates"

		if err := ensureClone(repoPath, cfg.GitOpsRepoURL, cfg.GitOpsSSHKeyPath, cfg.GitHubToken); err != nil {
			return fmt.Errorf("prepare gitops working tree: %w", err)
		}

		deployments := services.NewDeploymentService(store, stream)
		configs := services.NewConfigService(store, stream)
		renderer := template.New(templateCacheDir, configs)

		writer, err := gitops.Open(repoPath, organization, gitops.Deps{
			Store:       store,
			Stream:      stream,
			Renderer:    renderer,
			Deployments: deployments,
		})
		if err != nil {
			return fmt.Errorf("open gitops working tree: %w", err)
		}

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		collector := metrics.NewCollector(store)
		collector.Start()
		defer collector.Stop()
		metrics.RegisterComponent("gitops", true, "running")
		startMetricsServer(metricsAddr)

		writer.Start()
		logger.Info().Str("repo", repoPath).Str("metrics", metricsAddr).Msg("gitops process running")

		<-waitForInterrupt()
		logger.Info().Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), drainDeadline)
		defer cancel()
		return writer.Stop(ctx)
	},
}

func waitForInterrupt() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		waitForShutdown()
		close(done)
	}()
	return done
}

func init() {
	for _, cmd := range []*cobra.Command{apiCmd, reconcilerCmd, gitopsCmd} {
		cmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus /metrics endpoint")
	}

	apiCmd.Flags().String("listen", "0.0.0.0:8443", "Address for the gRPC api listener")
	apiCmd.Flags().String("tls-cert", "", "Server certificate (PEM); empty serves plaintext, for local development only")
	apiCmd.Flags().String("tls-key", "", "Server key (PEM)")
	apiCmd.Flags().String("tls-client-ca", "", "CA bundle (PEM) used to verify client certificates")

	gitopsCmd.Flags().String("organization", "acme", "Organization name used in rendered manifest paths")
	gitopsCmd.Flags().String("repo-path", "", "Local GitOps working tree (default $STATE_DIR/gitops)")
}
