// Package services is the facade the front end talks to. Each service
// depends only on the backend capability interfaces it needs, so tests
// substitute fakes for the backend.
//
//   - SessionGuard decides whether the current session may proceed.
//   - Authorizer answers "is this user an admin?" from a static list.
//   - IdentityService signs users in, up and out, and adopts sessions
//     from sign-in links.
//   - ApprovalService runs the security-code self-approval.
//   - DataService reads and writes profiles, earnings, reports,
//     campaigns and proof files.
//   - Notifier tells admins about pending sign-ups and never fails.
package services
