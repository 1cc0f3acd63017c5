// Command codeg-judge starts a http server that compiles and runs untrusted
// programs against test cases and reports their verdicts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/codeg/judge/client"
	"github.com/codeg/judge/cmd/codeg-judge/config"
	restexecutor "github.com/codeg/judge/cmd/codeg-judge/rest_executor"
	"github.com/codeg/judge/cmd/codeg-judge/version"
	wsexecutor "github.com/codeg/judge/cmd/codeg-judge/ws_executor"
	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/filestore"
	"github.com/codeg/judge/hint"
	"github.com/codeg/judge/judger"
	"github.com/codeg/judge/language"
	"github.com/codeg/judge/pkg/diff"
	"github.com/codeg/judge/pkg/sanitize"
	"github.com/codeg/judge/problem"
	"github.com/codeg/judge/runner"
	"github.com/codeg/judge/workspace"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var logger *zap.Logger

func main() {
	conf := loadConf()
	if conf.Version {
		fmt.Println(version.Version)
		return
	}
	initLogger(conf)
	defer logger.Sync()
	if ce := logger.Check(zap.InfoLevel, "Config loaded"); ce != nil {
		ce.Write(zap.String("config", fmt.Sprintf("%+v", conf)))
	}
	warnIfNotLinux()
	if conf.EnableMetrics {
		registerMetrics(prometheus.DefaultRegisterer)
	}

	ws, removeWs := newWorkspace(conf)
	fs, fsCleanUp := newFileStore(conf)
	catalog, catalogCleanUp := newCatalog(conf)
	j := newJudger(conf, ws, catalog)
	logger.Info("Judger started",
		zap.String("workspace", ws.Dir()),
		zap.Bool("memoryLimit", envexec.MemoryLimitSupported),
		zap.Duration("runTimeLimit", conf.RunTimeLimit))

	servers := []initFunc{
		cleanUpJudger(j, ws, removeWs),
		cleanUp("FileStore", fsCleanUp),
		cleanUp("Problem catalog", catalogCleanUp),
		initHTTPServer(conf, j, fs, newHintService(conf)),
		initMonitorHTTPServer(conf),
	}

	// Gracefully shutdown, with signal / HTTP server / Monitor HTTP server
	sig := make(chan os.Signal, 1+len(servers))

	stops := []stopFunc{}
	for _, s := range servers {
		start, stop := s()
		if start != nil {
			go func() {
				start()
				sig <- os.Interrupt
			}()
		}
		if stop != nil {
			stops = append(stops, stop)
		}
	}

	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	signal.Reset(syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Shutting Down...")

	ctx, cancel := context.WithTimeout(context.TODO(), time.Second*3)
	defer cancel()

	var eg errgroup.Group
	for _, s := range stops {
		eg.Go(func() error {
			return s(ctx)
		})
	}

	go func() {
		logger.Info("Shutdown Finished", zap.Error(eg.Wait()))
		cancel()
	}()
	<-ctx.Done()
}

func warnIfNotLinux() {
	if !envexec.MemoryLimitSupported {
		logger.Warn("Platform is not primarily supported", zap.String("GOOS", runtime.GOOS))
		logger.Warn("Memory limit is not enforced, MemoryLimitExceeded is only reported from runtime messages")
	}
}

func loadConf() *config.Config {
	var conf config.Config
	if err := conf.Load(); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalln("load config failed ", err)
	}
	return &conf
}

type (
	stopFunc func(ctx context.Context) error
	initFunc func() (start func(), cleanUp stopFunc)
)

// cleanUpJudger waits for the accepted submissions, the default workspace is
// removed once they are done
func cleanUpJudger(j *judger.Judger, ws *workspace.Workspace, removeWs bool) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		return nil, func(ctx context.Context) error {
			if err := j.Shutdown(ctx); err != nil {
				logger.Warn("Judger shutdown with pending submissions", zap.Error(err))
				return err
			}
			logger.Info("Judger shutdown")
			if removeWs {
				return ws.Remove()
			}
			return nil
		}
	}
}

func cleanUp(name string, f func() error) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		if f == nil {
			return nil, nil
		}
		return nil, func(ctx context.Context) error {
			err := f()
			logger.Info(name+" cleaned up", zap.Error(err))
			return err
		}
	}
}

func initHTTPServer(conf *config.Config, j *judger.Judger, fs filestore.FileStore, hs *hint.Service) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		r := initHTTPMux(conf, j, fs, hs)
		srv := http.Server{
			Addr:    conf.HTTPAddr,
			Handler: r,
		}

		return func() {
				logger.Info("Starting http server", zap.String("addr", conf.HTTPAddr))
				if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
					logger.Info("Http server stopped", zap.Error(err))
				} else {
					logger.Error("Http server stopped", zap.Error(err))
				}
			}, func(ctx context.Context) error {
				logger.Info("Http server shutting down")
				return srv.Shutdown(ctx)
			}
	}
}

func initMonitorHTTPServer(conf *config.Config) initFunc {
	return func() (start func(), cleanUp stopFunc) {
		mr := initMonitorHTTPMux(conf)
		if mr == nil {
			return nil, nil
		}
		msrv := http.Server{
			Addr:    conf.MonitorAddr,
			Handler: mr,
		}
		return func() {
				logger.Info("Starting monitoring http server", zap.String("addr", conf.MonitorAddr))
				logger.Info("Monitoring http server stopped", zap.Error(msrv.ListenAndServe()))
			}, func(ctx context.Context) error {
				logger.Info("Monitoring http server shutdown")
				return msrv.Shutdown(ctx)
			}
	}
}

func initLogger(conf *config.Config) {
	if conf.Silent {
		logger = zap.NewNop()
		return
	}

	var err error
	if conf.Release {
		logger, err = zap.NewProduction()
	} else {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !conf.EnableDebug {
			config.Level.SetLevel(zap.InfoLevel)
		}
		logger, err = config.Build()
	}
	if err != nil {
		log.Fatalln("init logger failed ", err)
	}
}

func initHTTPMux(conf *config.Config, j *judger.Judger, fs filestore.FileStore, hs *hint.Service) http.Handler {
	if conf.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, "", false))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	// CORS before auth so that preflight requests pass
	if origins := conf.Origins(); len(origins) > 0 {
		r.Use(corsMiddleware(origins))
	}

	// Metrics Handle
	if conf.EnableMetrics {
		initGinMetrics(r)
	}

	// Health and version handle
	r.GET("/", handleRoot)
	r.GET("/version", generateHandleVersion(conf))

	// Add auth token
	if conf.AuthToken != "" {
		r.Use(tokenAuth(conf.AuthToken))
		logger.Info("Attach token auth")
	}

	// Rest Handle
	handles := []restexecutor.Register{
		restexecutor.NewRunHandle(j, fs, logger),
		restexecutor.NewSubmissionHandle(j, conf.DefaultTimeLimit, *conf.DefaultMemoryLimit, logger),
		restexecutor.NewFileHandle(fs),
		wsexecutor.New(j, conf.DefaultTimeLimit, *conf.DefaultMemoryLimit, logger),
	}
	if cache, ok := j.Catalog.(*problem.Cache); ok {
		handles = append(handles, restexecutor.NewProblemHandle(cache, logger))
	}
	if hs != nil {
		handles = append(handles, restexecutor.NewAIHandle(hs, logger))
	} else {
		logger.Warn("No gemini api key, hint endpoints disabled")
	}
	for _, h := range handles {
		h.Register(r)
	}
	return r
}

func initMonitorHTTPMux(conf *config.Config) http.Handler {
	if !conf.EnableMetrics && !conf.EnableDebug {
		return nil
	}
	mux := http.NewServeMux()
	if conf.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if conf.EnableDebug {
		initDebugRoute(mux)
	}
	return mux
}

func initDebugRoute(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func tokenAuth(token string) gin.HandlerFunc {
	const bearer = "Bearer "
	return func(c *gin.Context) {
		reqToken := c.GetHeader("Authorization")
		if strings.HasPrefix(reqToken, bearer) && reqToken[len(bearer):] == token {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func newWorkspace(conf *config.Config) (*workspace.Workspace, bool) {
	removeOnExit := false
	if conf.Dir == "" {
		conf.Dir = filepath.Join(os.TempDir(), "codeg-judge")
		removeOnExit = true
	}
	ws, err := workspace.New(conf.Dir)
	if err != nil {
		logger.Fatal("Failed to create workspace", zap.Error(err))
	}
	return ws, removeOnExit
}

func newFileStore(conf *config.Config) (filestore.FileStore, func() error) {
	const timeoutCheckInterval = 15 * time.Second

	var fs filestore.FileStore
	if conf.UploadDir == "" {
		fs = filestore.NewFileMemoryStore()
	} else {
		var err error
		if fs, err = filestore.NewFileLocalStore(conf.UploadDir); err != nil {
			logger.Fatal("Failed to create file store", zap.Error(err))
		}
	}
	if conf.EnableMetrics {
		fs = newMetricsFileStore(fs)
	}
	if conf.UploadTimeout > 0 {
		t := filestore.NewTimeout(fs, conf.UploadTimeout, timeoutCheckInterval)
		return t, t.Close
	}
	return fs, nil
}

func newCatalog(conf *config.Config) (problem.Catalog, func() error) {
	if conf.BackendURL == "" {
		logger.Warn("No problem catalog configured, sample runs are unavailable")
		return nil, nil
	}
	var c problem.Catalog = problem.NewHTTPCatalog(conf.BackendURL, conf.BackendTimeout)
	if conf.RedisAddr == "" {
		return c, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
	})
	logger.Info("Problem cache enabled", zap.String("redis", conf.RedisAddr), zap.Duration("ttl", conf.ProblemCacheTTL))
	return problem.NewCache(c, rdb, conf.ProblemCacheTTL, logger.Named("problem")), rdb.Close
}

func newLanguages(conf *config.Config) *language.Registry {
	overrides, err := language.LoadSpecs(conf.LanguageConf)
	if err != nil {
		logger.Fatal("Failed to load language config", zap.Error(err))
	}
	specs := language.MergeSpecs(language.DefaultSpecs(), overrides)
	for i := range specs {
		switch {
		case specs[i].Name == "c" && conf.CFlags != "":
			specs[i].CompilerFlags = conf.CFlags
		case specs[i].Name == "cpp" && conf.CppFlags != "":
			specs[i].CompilerFlags = conf.CppFlags
		}
	}
	reg, err := language.NewRegistry(specs)
	if err != nil {
		logger.Fatal("Failed to create languages", zap.Error(err))
	}
	logger.Info("Languages loaded", zap.Strings("languages", reg.Names()))
	return reg
}

func newJudger(conf *config.Config, ws *workspace.Workspace, catalog problem.Catalog) *judger.Judger {
	filter, err := envexec.LoadSeccomp(conf.SeccompConf)
	if err != nil {
		logger.Fatal("Failed to load seccomp filter", zap.Error(err))
	}
	cmp, err := diff.New(conf.Comparator)
	if err != nil {
		logger.Fatal("Invalid comparator", zap.Error(err))
	}
	marker := conf.Marker
	if marker == "" {
		marker = ws.Marker()
	}
	env := programEnv()

	var observer judger.Observer
	if conf.EnableMetrics {
		observer = metricsObserver{}
	}
	return judger.New(judger.Config{
		Runner: &runner.Runner{
			Languages: newLanguages(conf),
			Compiler: &language.Compiler{
				Env:         env,
				TimeLimit:   conf.CompileTimeLimit,
				OutputLimit: *conf.OutputLimit,
			},
			Env:         env,
			OutputLimit: *conf.OutputLimit,
			Seccomp:     filter,
			Logger:      logger.Named("runner"),
		},
		Workspace:  ws,
		Comparator: cmp,
		Sanitizer:  sanitize.New(marker, conf.Placeholder),
		Catalog:    catalog,
		Client: client.New(client.Config{
			Timeout:    conf.CallbackTimeout,
			Retries:    conf.CallbackRetries,
			SigningKey: []byte(conf.CallbackSigningKey),
			Logger:     logger.Named("callback"),
		}),
		RunLimit: envexec.Limit{
			Time:   conf.RunTimeLimit,
			Memory: *conf.RunMemoryLimit,
		},
		Observer: observer,
		Logger:   logger.Named("judger"),
	})
}

func newHintService(conf *config.Config) *hint.Service {
	if conf.GeminiAPIKey == "" {
		return nil
	}
	gen, err := hint.NewGemini(context.Background(), conf.GeminiAPIKey, conf.GeminiModel)
	if err != nil {
		logger.Fatal("Failed to create gemini client", zap.Error(err))
	}
	return hint.NewService(gen)
}

// programEnv is the environment of compilers and user programs, only PATH is
// passed through
func programEnv() []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/local/bin:/usr/bin:/bin"
	}
	return []string{"PATH=" + path, "HOME=" + os.TempDir()}
}

func handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "Compiler Service Running")
}

func generateHandleVersion(conf *config.Config) func(*gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"buildVersion": version.Version,
			"goVersion":    runtime.Version(),
			"platform":     runtime.GOARCH,
			"os":           runtime.GOOS,
			"memoryLimit":  envexec.MemoryLimitSupported,
			"comparator":   conf.Comparator,
		})
	}
}
