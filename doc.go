// Package main provides the entry point for the Podzol publishing service.
// It initializes and runs a web server using the Fiber framework that serves
// a single-owner microblog: posts, comments, a privacy gate, and an email
// subscriber list with publish notifications.
package main
