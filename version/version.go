package version

// Version is the current release of the umshado CLI & server.
const Version = "0.3.1"
