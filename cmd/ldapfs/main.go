package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ldapfs/internal/config"
	"ldapfs/internal/directory"
	"ldapfs/internal/fs"
	"ldapfs/internal/logging"
)

var logger = logging.GetLogger()

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/ldapfs/ldapfs.yaml", "Configuration file path")
	mountPoint := flag.String("mount", "", "Mount point for the LDAP filesystem")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if *mountPoint == "" {
		logger.Error("Mount point is required")
		os.Exit(1)
	}
	cleanMount := filepath.Clean(*mountPoint)

	logger.Info("Starting ldapfs...")
	logger.Debug("Config file: %s", *configPath)
	logger.Debug("Mount point: %s", cleanMount)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Configure logging; -verbose overrides the configured level
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	if *verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	poolOpts := directory.PoolOptions{
		Size:    cfg.Pool.Size,
		Timeout: cfg.Pool.Timeout,
	}

	mounts := make([]*fs.Mount, 0, len(cfg.Mounts))
	for _, mc := range cfg.Mounts {
		server := directory.Server{
			Host:         mc.Host,
			Port:         mc.Port,
			BindDN:       mc.BindDN,
			BindPassword: mc.BindPassword,
		}
		logger.Debug("Configuring mount %q -> %s base=%q", mc.Name, server.URL(), mc.BaseDN)
		mounts = append(mounts, &fs.Mount{
			Name:   mc.Name,
			BaseDN: mc.BaseDN,
			Client: directory.NewClient(server, poolOpts),
		})
	}

	registry, err := fs.NewRegistry(mounts)
	if err != nil {
		// A duplicate mount name aborts the mount entirely.
		logger.Error("Invalid mount configuration: %v", err)
		for _, m := range mounts {
			m.Client.Close()
		}
		os.Exit(1)
	}
	defer registry.Close()

	vfs := fs.NewLdapFS(registry)

	logger.Debug("Setting up signal handlers...")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Mounting filesystem...")
	if err := vfs.Mount(cleanMount); err != nil {
		logger.Error("Mount failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Filesystem mounted and ready")

	sig := <-sigChan
	logger.Info("Received signal %v", sig)
	if err := vfs.Unmount(cleanMount); err != nil {
		logger.Error("Unmount error: %v", err)
	}
	logger.Info("Clean shutdown complete")
}
