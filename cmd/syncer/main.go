package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"podsync/internal/app"
	"podsync/ioc"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "syncer",
	Short:        "VM 宿主机同步的运维命令",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ioc.DefaultConfigPath, "配置文件路径")
	rootCmd.AddCommand(migrateCmd, syncCmd, syncAllCmd, resourcesCmd, validateCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "建表并初始化图数据库约束",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
			return svc.Init(ctx)
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <host-id>",
	Short: "刷新单个宿主机，集群成员会带动整个集群",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("非法的宿主机 id: %w", err)
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
			host, err := svc.RefreshHost(ctx, id, "cli")
			if err != nil {
				return err
			}
			return printJSON(cmd, host)
		})
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "刷新全部宿主机",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
			report, err := svc.SyncAllFlow.Run(ctx, "cli")
			if report == nil {
				return err
			}
			failed := make(map[string]string, len(report.Failed))
			for id, ferr := range report.Failed {
				failed[id.String()] = ferr.Error()
			}
			if perr := printJSON(cmd, map[string]any{"synced": report.Synced, "failed": failed}); perr != nil {
				return perr
			}
			return err
		})
	},
}

var resourcesCmd = &cobra.Command{
	Use:       "resources {host|cluster} <id>",
	Short:     "输出宿主机或集群的资源汇总",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"host", "cluster"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("非法的 id: %w", err)
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
			switch args[0] {
			case "host":
				summary, err := svc.HostResources(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			case "cluster":
				summary, err := svc.ClusterResources(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			default:
				return fmt.Errorf("未知的资源类型: %s", args[0])
			}
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "校验数据库与图数据库的一致性",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
			return svc.Validate(ctx)
		})
	},
}

// withService 按 region 相同的方式装配 Service，执行 fn 后释放资源。
func withService(ctx context.Context, fn func(context.Context, *app.Service) error) error {
	cfg, err := ioc.InitConfig(ioc.ConfigPath(configPath))
	if err != nil {
		return err
	}
	logger, err := ioc.InitLogger(cfg)
	if err != nil {
		return err
	}
	s, err := ioc.InitStore(cfg, logger)
	if err != nil {
		return err
	}
	graph, cleanup, err := ioc.InitGraph(ctx, cfg, logger)
	if err != nil {
		_ = s.Close()
		return err
	}
	defer cleanup()

	conn := ioc.InitAgentConnector(cfg)
	syncer := ioc.InitSyncer(s, ioc.InitAgentResolver(s, logger), ioc.InitDiscoverer(conn, cfg, logger), ioc.InitPublisher(s, graph, logger), logger)
	svc, err := ioc.InitAppService(cfg, s, syncer, ioc.InitGraphAdmin(graph), logger)
	if err != nil {
		_ = s.Close()
		return err
	}
	defer svc.Close(ctx)
	return fn(ctx, svc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
