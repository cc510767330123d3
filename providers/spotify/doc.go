// Package spotify talks to the third party that gates the application: the
// accounts token endpoint for credential refresh and the developer dashboard
// endpoints that manage the application's user allow-list.
package spotify
