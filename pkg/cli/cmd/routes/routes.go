/* Copyright 2025 Trailsync Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package routes lists the routes available on the server or on this device
package routes

import (
	gocontext "context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/client"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/wire"
)

var example = `
  * List the routes on the server
  trail routes

  * Filter by region
  trail routes --region dolomites --page 2

  * List the routes downloaded to this device
  trail routes --local`

var (
	localFlag   bool
	regionFlag  string
	pageFlag    int
	perPageFlag int
)

// NewCmd returns a new routes command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routes",
		Short:   "List routes",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&localFlag, "local", "l", false, "list the routes stored on this device")
	f.StringVar(&regionFlag, "region", "", "only list routes of this region")
	f.IntVar(&pageFlag, "page", 1, "page of the listing")
	f.IntVar(&perPageFlag, "per-page", 30, "number of routes per page")

	return cmd
}

func printLocal(ctx context.TrailCtx) error {
	routes, err := operations.ListRoutes(ctx.DB)
	if err != nil {
		return errors.Wrap(err, "listing local routes")
	}

	if len(routes) == 0 {
		log.Plain("no routes downloaded yet. Run 'trail sync <route id>'\n")
		return nil
	}

	for _, r := range routes {
		output.RouteSummary(wire.RouteSummary{ID: r.ID, Slug: r.Slug, Name: r.Name, Region: r.Region, Rating: r.Rating})
	}

	return nil
}

func printRemote(ctx context.TrailCtx) error {
	res, err := infra.NewClient(ctx).ListRoutes(gocontext.Background(), client.ListRoutesParams{
		Region:  regionFlag,
		Page:    pageFlag,
		PerPage: perPageFlag,
	})
	if err != nil {
		return errors.Wrap(err, "listing remote routes")
	}

	for _, r := range res.Routes {
		output.RouteSummary(r)
	}
	log.Printf("page %d, %d routes in total\n", pageFlag, res.Total)

	return nil
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if localFlag {
			return printLocal(ctx)
		}

		return printRemote(ctx)
	}
}
