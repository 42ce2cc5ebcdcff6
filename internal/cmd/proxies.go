package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MrJJimenez/jobscout/internal/config"
	"github.com/MrJJimenez/jobscout/internal/network"
	fhttp "github.com/bogdanfinn/fhttp"
)

var errNoProxiesConfigured = errors.New("no proxies configured")

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Validate proxies against a job board."`
}

type ProxyCheckCmd struct {
	Target  string        `help:"Target URL." default:"https://www.indeed.com"`
	Timeout time.Duration `help:"Timeout per proxy." default:"15s"`
	Proxies string        `help:"Comma-separated proxy URLs (default: configured proxies)." env:"JOBSCOUT_PROXIES"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(p.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return errNoProxiesConfigured
	}

	results := make([]ProxyCheckResult, 0, len(proxies))
	for _, proxy := range proxies {
		results = append(results, p.check(ctx.runContext(), proxy))
	}
	return writeProxyResults(ctx, results)
}

func (p *ProxyCheckCmd) check(ctx context.Context, proxy string) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy, Status: "error"}

	rotator, err := network.NewRotator([]string{proxy}, proxyBanDuration)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	client, err := network.NewClient(rotator, network.Options{Timeout: p.Timeout})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer client.Close()

	reqCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	req, err := fhttp.NewRequestWithContext(reqCtx, fhttp.MethodGet, p.Target, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	_ = resp.Body.Close()

	result.LatencyMS = time.Since(start).Milliseconds()
	result.Status = strconv.Itoa(resp.StatusCode)
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			line := []string{res.Proxy, res.Status, strconv.FormatInt(res.LatencyMS, 10), res.Error}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
