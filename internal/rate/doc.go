// Package rate implements Redis fixed-window counters used to throttle
// requests that send mail.
//
// A window starts with INCR on a fresh key followed by EXPIRE. Keys are
// "<prefix>mt:<scope>:e:<email>" and "<prefix>mt:<scope>:ip:<ip>".
package rate
