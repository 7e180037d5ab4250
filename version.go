package labgen

// Version of the lab generator.
const Version = "1.0.0"
