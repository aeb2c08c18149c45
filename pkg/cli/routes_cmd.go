package cli

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/getmockd/webserver/pkg/cli/internal/output"
	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/routes"
	"github.com/getmockd/webserver/pkg/webserver"
)

// RouteOutput is one row of the routes command.
type RouteOutput struct {
	Kind     string `json:"kind"`
	Pattern  string `json:"pattern"`
	Status   int    `json:"status"`
	Response string `json:"response"`
}

func newRoutesCmd(g *globalFlags) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table a configuration produces",
		Example: `  webserver routes --config webserver.yaml
  webserver routes -c webserver.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			table, err := routeTable(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.jsonOutput {
				return output.JSON(w, table)
			}
			if len(table) == 0 {
				fmt.Fprintln(w, "No routes configured")
				return nil
			}

			tw := output.Table(w)
			fmt.Fprintln(tw, "KIND\tPATTERN\tSTATUS\tRESPONSE")
			for _, row := range table {
				status := "-"
				if row.Status != 0 {
					status = strconv.Itoa(row.Status)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Kind, row.Pattern, status, row.Response)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (or set WEBSERVER_CONFIG)")
	return cmd
}

// routeTable registers cfg's routes on a server that never listens and
// describes the resulting table, so overrides and ordering match serve.
func routeTable(cfg *config.Config) ([]RouteOutput, error) {
	srv := webserver.New(cfg.Server)
	if err := routes.Register(srv, cfg.Routes); err != nil {
		return nil, err
	}
	routes.RegisterEcho(srv, cfg.EchoPrefix)

	// Later definitions of a pattern win, as they do when registering.
	defs := make(map[webserver.Route]config.RouteConfig, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		kind := webserver.RouteExact
		if rc.IsPrefix() {
			kind = webserver.RoutePrefix
		}
		defs[webserver.Route{Kind: kind, Pattern: rc.Pattern()}] = rc
	}
	// The echo prefix is registered last and replaces a configured prefix.
	delete(defs, webserver.Route{Kind: webserver.RoutePrefix, Pattern: cfg.EchoPrefix})

	registered := srv.Routes()
	table := make([]RouteOutput, 0, len(registered))
	for _, rt := range registered {
		row := RouteOutput{Kind: string(rt.Kind), Pattern: rt.Pattern}
		if rc, ok := defs[rt]; ok {
			row.Status, row.Response = describeRoute(rc)
		} else {
			row.Status, row.Response = http.StatusOK, "echo"
		}
		table = append(table, row)
	}
	return table, nil
}

func describeRoute(rc config.RouteConfig) (int, string) {
	status := rc.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch {
	case rc.Echo:
		return status, "echo"
	case rc.Error != "":
		return http.StatusInternalServerError, "error: " + rc.Error
	case rc.JSON != nil:
		return status, "json"
	case rc.Body != "":
		desc := "body (" + strconv.Itoa(len(rc.Body)) + " bytes)"
		if rc.Encoding != "" {
			desc += " " + rc.Encoding
		}
		return status, desc
	default:
		return status, "empty"
	}
}
