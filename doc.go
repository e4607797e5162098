/*
Package failover provides a resilience layer in front of the MySQL driver for
managed multi-writer cluster deployments whose writer endpoint can fail over
to a different physical node.

During a failover, in-flight connections observe either a connection-level
error or a read-only error, because the client is still bound to a node that
was demoted to replica. This package classifies both failure families from
the error text and transparently reconnects, so application code does not
need failover-aware logic:

	db, err := sql.Open("mysql-failover", "user:pass@tcp(cluster-endpoint:3306)/app?maxRetryCount=5")

Two policies are available, selected via DSN parameters:

  - maxRetryCount=N: on a transient connection error, reconnect and retry the
    query up to N times with an increasing capped delay. Combine with
    disconnectOnReadonly=true to drop the connection immediately when a
    read-only node is detected instead of retrying.
  - reconnectOnReadonly=true: on a read-only error, reconnect once and
    re-raise the original error. The query is never retried; the application
    decides whether to run it again.

Every other parameter in the DSN is forwarded verbatim to
github.com/go-sql-driver/mysql, which carries the wire protocol. All
operations other than query execution pass straight through to it.
*/
package failover
