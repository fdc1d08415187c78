package toolchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
)

// UpdateInfo reports the result of checking a component for a newer
// release, without downloading anything.
type UpdateInfo struct {
	InstalledPath    string `json:"installed_path,omitempty"`
	InstalledVersion string `json:"installed_version,omitempty"`
	LatestVersion    string `json:"latest_version,omitempty"`
	NeedsUpdate      bool   `json:"needs_update"`
	AssetName        string `json:"asset_name"`
	DownloadURL      string `json:"download_url"`
}

// InstallResult reports a completed or previously-completed installation.
type InstallResult struct {
	InstalledPath    string `json:"installed_path"`
	InstalledVersion string `json:"installed_version"`
}

// componentSpec names the GitHub release asset this process's OS/arch
// should fetch for one external binary.
type componentSpec struct {
	repo           string // "owner/name"
	assetName      string
	installName    string
	checksumsAsset string
	versionFile    string
}

// ytdlpSpec mirrors original_source's select_asset for the downloader.
func ytdlpSpec() componentSpec {
	name, install := "yt-dlp_linux", "yt-dlp"
	switch runtime.GOOS {
	case "windows":
		name, install = "yt-dlp.exe", "yt-dlp.exe"
	case "darwin":
		name, install = "yt-dlp_macos", "yt-dlp"
	case "linux":
		switch runtime.GOARCH {
		case "arm64":
			name = "yt-dlp_linux_aarch64"
		case "arm":
			name = "yt-dlp_linux_armv7l"
		default:
			name = "yt-dlp_linux"
		}
	}
	return componentSpec{
		repo:           "yt-dlp/yt-dlp",
		assetName:      name,
		installName:    install,
		checksumsAsset: "SHA2-256SUMS",
		versionFile:    "yt-dlp.version.json",
	}
}

// ffmpegSpec follows the same release/checksum shape, generalized to the
// ffmpeg static-build distribution the rest of the toolchain facade
// targets.
func ffmpegSpec() componentSpec {
	name, install := "ffmpeg-linux-amd64", "ffmpeg"
	switch runtime.GOOS {
	case "windows":
		name, install = "ffmpeg-windows-amd64.exe", "ffmpeg.exe"
	case "darwin":
		name, install = "ffmpeg-darwin-amd64", "ffmpeg"
	case "linux":
		if runtime.GOARCH == "arm64" {
			name = "ffmpeg-linux-arm64"
		}
	}
	return componentSpec{
		repo:           "eugeneware/ffmpeg-static",
		assetName:      name,
		installName:    install,
		checksumsAsset: "SHA2-256SUMS",
		versionFile:    "ffmpeg.version.json",
	}
}

// Updater drives the check/install flow for one external binary, backed
// by a resty client matching the spec's exact HTTP contract: 10s connect
// timeout, 300s overall timeout, up to 10 redirects, identity encoding,
// an app-identifying user agent.
type Updater struct {
	client *resty.Client
	binDir string
	spec   componentSpec
}

func newHTTPClient() *resty.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
	}
	return resty.NewWithClient(&http.Client{Transport: transport}).
		SetTimeout(300 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "slisic/1.0 (+https://github.com/GrahLnn/slisic)").
		SetHeader("Accept-Encoding", "identity")
}

// NewYtdlpUpdater builds an Updater for the downloader binary, installed
// under binDir (<app_local_data>/bin).
func NewYtdlpUpdater(binDir string) *Updater {
	return &Updater{client: newHTTPClient(), binDir: binDir, spec: ytdlpSpec()}
}

// NewFfmpegUpdater builds an Updater for the transcoder binary.
func NewFfmpegUpdater(binDir string) *Updater {
	return &Updater{client: newHTTPClient(), binDir: binDir, spec: ffmpegSpec()}
}

func (u *Updater) installedPath() string    { return filepath.Join(u.binDir, u.spec.installName) }
func (u *Updater) versionFilePath() string  { return filepath.Join(u.binDir, u.spec.versionFile) }
func (u *Updater) downloadURL() string {
	return fmt.Sprintf("https://github.com/%s/releases/latest/download/%s", u.spec.repo, u.spec.assetName)
}
func (u *Updater) checksumsURL() string {
	return fmt.Sprintf("https://github.com/%s/releases/latest/download/%s", u.spec.repo, u.spec.checksumsAsset)
}

type versionDoc struct {
	Version string `json:"version"`
}

func (u *Updater) readInstalledVersion() (string, bool) {
	data, err := os.ReadFile(u.versionFilePath())
	if err != nil {
		return "", false
	}
	var doc versionDoc
	if err := json.Unmarshal(data, &doc); err != nil || doc.Version == "" {
		return "", false
	}
	return doc.Version, true
}

func (u *Updater) writeInstalledVersion(version string) error {
	if err := os.MkdirAll(u.binDir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrToolchainFailed, u.binDir, err)
	}
	data, err := json.MarshalIndent(versionDoc{Version: version}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(u.versionFilePath(), data, 0o644)
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

func (u *Updater) fetchLatestVersion(ctx context.Context) (string, error) {
	var rel githubRelease
	resp, err := u.client.R().SetContext(ctx).SetResult(&rel).
		Get(fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", u.spec.repo))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", ErrNetworkFailed, resp.Status())
	}
	return rel.TagName, nil
}

func (u *Updater) fetchChecksums(ctx context.Context) (string, error) {
	resp, err := u.client.R().SetContext(ctx).Get(u.checksumsURL())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", ErrNetworkFailed, resp.Status())
	}
	return string(resp.Body()), nil
}

// parseSHA256 finds the hex digest for asset in a SHA2-256SUMS-formatted
// document ("{sha256}  {filename}" per line).
func parseSHA256(sums, asset string) (string, bool) {
	for _, line := range strings.Split(sums, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasSuffix(line, asset) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		h := strings.ToLower(fields[0])
		if len(h) == 64 {
			return h, true
		}
	}
	return "", false
}

// newerVersion compares two "vMAJOR.MINOR.PATCH"-shaped tags numerically,
// falling back to a lexical compare when either doesn't parse that way.
func newerVersion(latest, current string) bool {
	toNum := func(v string) (int, bool) {
		v = strings.TrimPrefix(v, "v")
		parts := strings.Split(v, ".")
		if len(parts) != 3 {
			return 0, false
		}
		a, err1 := strconv.Atoi(parts[0])
		b, err2 := strconv.Atoi(parts[1])
		c, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, false
		}
		return a*10000 + b*100 + c, true
	}
	ln, lok := toNum(latest)
	cn, cok := toNum(current)
	if lok && cok {
		return ln > cn
	}
	return latest > current
}

// CheckUpdate reports the installed and latest versions and whether an
// update is available. A network failure here is tolerated: it reports
// no update available rather than failing the call, since a version
// check is advisory and the rest of the application stays usable with
// whatever binary is already present.
func (u *Updater) CheckUpdate(ctx context.Context) (UpdateInfo, error) {
	info := UpdateInfo{AssetName: u.spec.assetName, DownloadURL: u.downloadURL()}
	if _, err := os.Stat(u.installedPath()); err == nil {
		info.InstalledPath = u.installedPath()
	}
	installedVersion, haveInstalled := u.readInstalledVersion()
	if haveInstalled {
		info.InstalledVersion = installedVersion
	}

	latest, err := u.fetchLatestVersion(ctx)
	if err != nil {
		return info, nil
	}
	info.LatestVersion = latest
	info.NeedsUpdate = !haveInstalled || newerVersion(latest, installedVersion)
	return info, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DownloadAndInstall fetches the latest release asset, verifies its
// SHA-256 checksum against the release's published sums file, and
// replaces the installed binary (the old one is removed, then the
// verified download is renamed into its place). A checksum mismatch removes
// the downloaded file and reports ErrChecksumMismatch; it never touches
// the previously-installed binary.
func (u *Updater) DownloadAndInstall(ctx context.Context) (InstallResult, error) {
	sums, err := u.fetchChecksums(ctx)
	if err != nil {
		return InstallResult{}, err
	}
	expect, ok := parseSHA256(sums, u.spec.assetName)
	if !ok {
		return InstallResult{}, fmt.Errorf("%w: no checksum found for asset %s", ErrInvalidInput, u.spec.assetName)
	}

	if err := os.MkdirAll(u.binDir, 0o755); err != nil {
		return InstallResult{}, fmt.Errorf("%w: mkdir %s: %v", ErrToolchainFailed, u.binDir, err)
	}
	tmp := u.installedPath() + ".tmp"

	resp, err := u.client.R().SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetOutput(tmp).
		Get(u.downloadURL())
	if err != nil {
		return InstallResult{}, fmt.Errorf("%w: %v", ErrNetworkFailed, err)
	}
	if resp.IsError() {
		os.Remove(tmp)
		return InstallResult{}, fmt.Errorf("%w: %s", ErrNetworkFailed, resp.Status())
	}

	got, err := sha256File(tmp)
	if err != nil {
		os.Remove(tmp)
		return InstallResult{}, err
	}
	if got != expect {
		os.Remove(tmp)
		return InstallResult{}, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expect, got)
	}

	if info, err := os.Stat(tmp); err == nil {
		slog.Info("toolchain: downloaded asset verified", "asset", u.spec.assetName, "size", humanize.Bytes(uint64(info.Size())))
	}

	if err := os.Chmod(tmp, 0o755); err != nil {
		os.Remove(tmp)
		return InstallResult{}, err
	}
	os.Remove(u.installedPath())
	if err := os.Rename(tmp, u.installedPath()); err != nil {
		return InstallResult{}, fmt.Errorf("%w: install %s: %v", ErrToolchainFailed, u.installedPath(), err)
	}

	latest, err := u.fetchLatestVersion(ctx)
	if err != nil {
		latest = "unknown"
	}
	if err := u.writeInstalledVersion(latest); err != nil {
		return InstallResult{}, err
	}

	return InstallResult{InstalledPath: u.installedPath(), InstalledVersion: latest}, nil
}

// CheckExists reports the installed binary's path and version, when both
// are present.
func (u *Updater) CheckExists() (InstallResult, bool) {
	if _, err := os.Stat(u.installedPath()); err != nil {
		return InstallResult{}, false
	}
	version, ok := u.readInstalledVersion()
	if !ok {
		return InstallResult{}, false
	}
	return InstallResult{InstalledPath: u.installedPath(), InstalledVersion: version}, true
}

// Version returns the version recorded in the version file at install
// time; it does not execute the binary. With no recorded version it
// reports ErrToolchainUnavailable.
func (u *Updater) Version(ctx context.Context) (string, error) {
	if version, ok := u.readInstalledVersion(); ok {
		return version, nil
	}
	return "", fmt.Errorf("%w: %s", ErrToolchainUnavailable, u.spec.installName)
}

// GithubOK reports whether GitHub's release infrastructure is reachable,
// tolerating either the checksums asset or the marketing site responding.
func GithubOK(ctx context.Context) bool {
	client := newHTTPClient()
	if resp, err := client.R().SetContext(ctx).
		Head("https://github.com/yt-dlp/yt-dlp/releases/latest/download/SHA2-256SUMS"); err == nil && !resp.IsError() {
		return true
	}
	resp, err := client.R().SetContext(ctx).Head("https://github.com")
	return err == nil && !resp.IsError()
}
