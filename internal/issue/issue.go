// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ManifestInvalidId
	PlatformNotSupportedId
	DownloadFailedId
	InstallerCommandFailedId
	ExtractionFailedId
	ReadinessTimeoutId
	FilesystemFailedId
	ShellNotFoundId
	RuntimeNotProvisionedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the issue as styled terminal Markdown. stylePath is a
// glamour standard style name ("dark", "light", "notty", "auto") or a path
// to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Search locations (in order of precedence):
1. The file given with ` + "`--config`" + `
2. ` + "`<user config dir>/rtprov/config.cue`" + `
3. ` + "`./rtprov.cue`" + `

## Things you can try:
- Print the effective configuration:
~~~
$ rtprov config show
~~~
- Write a fresh default file and edit it:
~~~
$ rtprov config init
~~~

## Example:
~~~cue
runtimes_dir: "./resources/runtimes"
versions: {
	python:         "3.11.0"
	nodejs:         "18.16.0"
	robotframework: "6.1.1"
	jupyter:        "7.0.0"
}
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Invalid runtime manifest!

Every runtime needs an exact semantic version (` + "`MAJOR.MINOR.PATCH`" + `, an optional leading ` + "`v`" + ` is accepted).
Ranges, partial versions and "latest" are rejected.

## Things you can try:
- Check the ` + "`runtimeVersions`" + ` object of your package.json or the ` + "`[runtimeVersions]`" + ` table of your TOML manifest
- Check ` + "`RTPROV_VERSIONS_*`" + ` environment variables
- Print what would be installed:
~~~
$ rtprov plan
~~~`,
		extLinks: []HttpLink{"https://semver.org"},
	}

	platformNotSupportedIssue = &Issue{
		id: PlatformNotSupportedId,
		mdMsg: `
# Platform not supported!

Runtimes can only be provisioned on Windows, macOS and Linux.

## Things you can try:
- Run rtprov on one of the supported operating systems
- Preview another platform's downloads without installing:
~~~
$ rtprov plan --platform linux
~~~`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

An installer or runtime archive could not be downloaded. Partial files were removed.

## Common causes:
- No network access, or a proxy is required
- The requested version does not exist upstream (HTTP 404)
- The server returned an empty body

## Things you can try:
- Check the resolved URLs:
~~~
$ rtprov plan
~~~
- Point rtprov at an internal mirror:
~~~cue
mirrors: {
	python: "https://mirror.example.com/python"
	nodejs: "https://mirror.example.com/node"
}
~~~
- Re-run ` + "`rtprov provision`" + `; every step can be repeated safely`,
	}

	installerCommandFailedIssue = &Issue{
		id: InstallerCommandFailedId,
		mdMsg: `
# Installer command failed!

An external command (interpreter installer, venv creation or pip) exited with a non-zero status.
Its standard error is shown above.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to stream the full command output
- Make sure ` + "`python3`" + ` and its ` + "`venv`" + ` module are installed (Linux and macOS)
- Check that the pinned package versions exist on PyPI
- Re-run ` + "`rtprov provision`" + `; every step can be repeated safely`,
		extLinks: []HttpLink{"https://docs.python.org/3/library/venv.html"},
	}

	extractionFailedIssue = &Issue{
		id: ExtractionFailedId,
		mdMsg: `
# Archive extraction failed!

The downloaded archive is corrupt, truncated or contains unsafe paths.
The archive was kept next to the install directory for inspection.

## Things you can try:
- Delete the archive and run ` + "`rtprov provision`" + ` again
- Verify the mirror serves the real distribution and not an HTML error page`,
	}

	readinessTimeoutIssue = &Issue{
		id: ReadinessTimeoutId,
		mdMsg: `
# Timed out waiting for an installer!

The installer reported success but the expected interpreter never appeared.

## Things you can try:
- Raise the wait limit:
~~~cue
settle: {
	timeout: "3m"
}
~~~
- Check whether antivirus software quarantined the interpreter`,
	}

	filesystemFailedIssue = &Issue{
		id: FilesystemFailedId,
		mdMsg: `
# Filesystem operation failed!

A directory or file under the runtimes directory could not be created, written or removed.

## Things you can try:
- Check permissions of the runtimes directory
- Make sure no running process holds files of a previous installation open
- Choose another location:
~~~
$ RTPROV_RUNTIMES_DIR=/tmp/runtimes rtprov provision
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a shell to run installer commands.

## Shells we look for:
- Linux/macOS: $SHELL, bash, sh
- Windows: cmd.exe

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Use the built-in shell interpreter:
~~~cue
runner: "virtual"
~~~`,
	}

	runtimeNotProvisionedIssue = &Issue{
		id: RuntimeNotProvisionedId,
		mdMsg: `
# Runtime not provisioned!

The provisioned interpreter or Node.js binary could not be queried.

## Things you can try:
- Provision the runtimes first:
~~~
$ rtprov provision
~~~
- Make sure ` + "`--manifest`" + ` and the configuration match the provisioned versions`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		manifestInvalidIssue.Id():        manifestInvalidIssue,
		platformNotSupportedIssue.Id():   platformNotSupportedIssue,
		downloadFailedIssue.Id():         downloadFailedIssue,
		installerCommandFailedIssue.Id(): installerCommandFailedIssue,
		extractionFailedIssue.Id():       extractionFailedIssue,
		readinessTimeoutIssue.Id():       readinessTimeoutIssue,
		filesystemFailedIssue.Id():       filesystemFailedIssue,
		shellNotFoundIssue.Id():          shellNotFoundIssue,
		runtimeNotProvisionedIssue.Id():  runtimeNotProvisionedIssue,
	}
)

// Values returns every catalog issue ordered by Id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
