// app holds the room moderation core.
//
// *. A room starts pending and becomes active once it has enough members.
//    An active room without enough recent posters is locked, a locked room
//    that recovers is unlocked, and a room that drops below the member
//    minimum is deleted together with its posts. Deleted is final.
// *. Every state change goes through Transition, which only computes. The
//    RoomService carries out the effects it returns.
// *. Pinned posts and posts with a no-expire reason never expire.
//    A post and its replies expire together.
// *. Members of locked rooms are not checked for compliance.
// *. Badges are awarded once per user, the award table enforces it too.
// *. Notifications are only queued here. The batcher hands them to a
//    dispatcher later.
//
// Implement notes:
// Batch runs never stop on a single failing item, the item is logged and
// added to the RunSummary errors. Only a failing list query aborts a run.
package app
