// Package preflight provides readiness checks for the paths, devices, and
// endpoints cardwatch depends on.
//
// These checks run in two contexts:
//   - The CLI "cardwatch doctor" command runs RunAll and renders one row
//     per check.
//   - The daemon runs RunAll at startup and logs failed checks, so a
//     misconfigured install complains loudly instead of capturing into a
//     broken setup.
//
// Failed checks are advisory: a detached reader or unreachable webhook is
// survivable by design, and the daemon starts anyway.
package preflight
